// Package checkout converts a cart into purchases and stock decrements.
// The whole pass runs in one transaction: either every line is applied
// and the cart is cleared, or nothing is.
package checkout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/mail"
	"github.com/Skotchmaster/storefront/internal/models"
)

type Line struct {
	Product  models.Product  `json:"product"`
	Quantity uint            `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type Receipt struct {
	Items    []Line          `json:"items"`
	Total    decimal.Decimal `json:"total"`
	PlacedAt time.Time       `json:"placed_at"`
}

type Service struct {
	DB     *gorm.DB
	Mailer mail.Mailer
	Events events.Publisher
}

// Checkout processes the user's cart. Stock is taken with a conditional
// decrement (stock >= quantity) so two concurrent checkouts against the
// same product cannot both pass the check; the loser rolls back with
// InsufficientStockError and no partial mutation is observable. Cart
// lines whose product has been deleted are dropped, matching the cart
// view. After commit a confirmation email and an order event go out
// best-effort.
func (s *Service) Checkout(ctx context.Context, user models.User) (*Receipt, error) {
	var receipt *Receipt

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := tx.Where("user_id = ?", user.ID).Order("product_id ASC").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return apperr.Validation("cart is empty")
		}

		var lines []Line
		total := decimal.Zero

		for _, item := range items {
			var product models.Product
			if err := tx.First(&product, item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}

			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &apperr.InsufficientStockError{ProductID: product.ID, Name: product.Name}
			}

			purchase := models.Purchase{
				UserID:    user.ID,
				ProductID: product.ID,
				Quantity:  item.Quantity,
			}
			if err := tx.Create(&purchase).Error; err != nil {
				return err
			}

			subtotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			product.Stock -= item.Quantity
			lines = append(lines, Line{Product: product, Quantity: item.Quantity, Subtotal: subtotal})
			total = total.Add(subtotal)
		}

		if len(lines) == 0 {
			return apperr.Validation("cart is empty")
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}

		receipt = &Receipt{Items: lines, Total: total, PlacedAt: time.Now()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCheckout(ctx, user, receipt)
	return receipt, nil
}

func (s *Service) afterCheckout(ctx context.Context, user models.User, receipt *Receipt) {
	log := logging.FromContext(ctx)

	if s.Mailer != nil {
		html, err := renderInvoice(user, receipt)
		if err != nil {
			log.Error("checkout: render invoice", logging.Err(err))
		} else if err := s.Mailer.Send(
			user.Email,
			"Your Order Invoice",
			fmt.Sprintf("Thank you for your order! Total: $%s", receipt.Total.StringFixed(2)),
			html,
		); err != nil {
			log.Error("checkout: invoice email", logging.Err(err))
		}
	}

	if s.Events != nil {
		event := map[string]any{
			"type":    events.TypeOrderPlaced,
			"user_id": user.ID,
			"total":   receipt.Total.StringFixed(2),
			"lines":   len(receipt.Items),
		}
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.Events.Publish(pubCtx, events.TopicOrders, fmt.Sprint(user.ID), event); err != nil {
			log.Error("checkout: publish order event", logging.Err(err))
		}
	}
}

var invoiceTmpl = template.Must(template.New("invoice").Parse(`<h1>Order Invoice</h1>
<p>Hello {{.User.Username}}, thank you for your order placed on {{.Receipt.PlacedAt.Format "Jan 2, 2006 15:04"}}.</p>
<table>
  <tr><th>Product</th><th>Quantity</th><th>Subtotal</th></tr>
  {{range .Receipt.Items}}<tr><td>{{.Product.Name}}</td><td>{{.Quantity}}</td><td>${{.Subtotal.StringFixed 2}}</td></tr>
  {{end}}
</table>
<p>Total: ${{.Receipt.Total.StringFixed 2}}</p>`))

func renderInvoice(user models.User, receipt *Receipt) (string, error) {
	var buf bytes.Buffer
	err := invoiceTmpl.Execute(&buf, struct {
		User    models.User
		Receipt *Receipt
	}{user, receipt})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
