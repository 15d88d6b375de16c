package mongo

import (
	"time"

	"github.com/febluxury/storefront/internal/domain"
)

// Collection names.
const (
	productsCollection = "products"
	reviewsCollection  = "reviews"
)

type stockDoc struct {
	Status   string `bson:"status"`
	Quantity int    `bson:"quantity"`
}

type deliveryDoc struct {
	MinDays int `bson:"minDays"`
	MaxDays int `bson:"maxDays"`
}

type productDoc struct {
	ID          string      `bson:"_id"`
	Name        string      `bson:"name"`
	Category    string      `bson:"category"`
	Subcategory string      `bson:"subcategory,omitempty"`
	Description string      `bson:"description"`
	Price       float64     `bson:"price"`
	OldPrice    *float64    `bson:"oldPrice,omitempty"`
	Image       string      `bson:"image,omitempty"`
	Gallery     []string    `bson:"gallery,omitempty"`
	Rating      float64     `bson:"rating"`
	ReviewCount int         `bson:"reviewCount"`
	Stock       stockDoc    `bson:"stock"`
	Delivery    deliveryDoc `bson:"delivery"`
	AuthorID    *string     `bson:"author,omitempty"`
	CreatedAt   time.Time   `bson:"createdAt"`
	UpdatedAt   time.Time   `bson:"updatedAt"`
}

func newProductDoc(p *domain.Product) productDoc {
	return productDoc{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Subcategory: p.Subcategory,
		Description: p.Description,
		Price:       p.Price,
		OldPrice:    p.OldPrice,
		Image:       p.Image,
		Gallery:     p.Gallery,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		Stock:       stockDoc{Status: string(p.Stock.Status), Quantity: p.Stock.Quantity},
		Delivery:    deliveryDoc{MinDays: p.Delivery.MinDays, MaxDays: p.Delivery.MaxDays},
		AuthorID:    p.AuthorID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d *productDoc) toDomain() domain.Product {
	return domain.Product{
		ID:          d.ID,
		Name:        d.Name,
		Category:    d.Category,
		Subcategory: d.Subcategory,
		Description: d.Description,
		Price:       d.Price,
		OldPrice:    d.OldPrice,
		Image:       d.Image,
		Gallery:     d.Gallery,
		Rating:      d.Rating,
		ReviewCount: d.ReviewCount,
		Stock:       domain.Stock{Status: domain.StockStatus(d.Stock.Status), Quantity: d.Stock.Quantity},
		Delivery:    domain.Delivery{MinDays: d.Delivery.MinDays, MaxDays: d.Delivery.MaxDays},
		AuthorID:    d.AuthorID,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type reviewDoc struct {
	ID        string     `bson:"_id"`
	ProductID string     `bson:"productId"`
	UserID    string     `bson:"userId"`
	Comment   string     `bson:"comment"`
	Rating    int        `bson:"rating"`
	Likes     []string   `bson:"likes"`
	IsEdited  bool       `bson:"isEdited"`
	EditedAt  *time.Time `bson:"editedAt,omitempty"`
	Status    string     `bson:"status"`
	CreatedAt time.Time  `bson:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt"`
}

func (d *reviewDoc) toDomain() domain.Review {
	likes := d.Likes
	if likes == nil {
		likes = []string{}
	}
	var editedAt *time.Time
	if d.EditedAt != nil {
		t := d.EditedAt.UTC()
		editedAt = &t
	}
	return domain.Review{
		ID:        d.ID,
		ProductID: d.ProductID,
		UserID:    d.UserID,
		Comment:   d.Comment,
		Rating:    d.Rating,
		Likes:     likes,
		IsEdited:  d.IsEdited,
		EditedAt:  editedAt,
		Status:    domain.ReviewStatus(d.Status),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}
