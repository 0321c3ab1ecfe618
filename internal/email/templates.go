package email

import (
	"fmt"
	"html"
)

// LowStockAlert is the data shown in a low stock email
type LowStockAlert struct {
	ProductID    string
	ProductName  string
	Remaining    int
	Threshold    int
	LastOrderID  int64
	LastCustomer string
	LastQuantity int
}

// BuildLowStockBody builds the HTML body for a low stock alert
func BuildLowStockBody(a LowStockAlert) string {
	name := a.ProductName
	if name == "" {
		name = a.ProductID
	}

	status := fmt.Sprintf("%d units left", a.Remaining)
	if a.Remaining == 0 {
		status = "Out of stock"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #c0392b; padding: 20px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 22px;">Low stock alert</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;"><strong>%s</strong>: %s (threshold %d).</p>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<tr><td style="padding: 8px; color: #666;">Product ID</td><td style="padding: 8px; font-family: monospace;">%s</td></tr>
			<tr><td style="padding: 8px; color: #666;">Last order</td><td style="padding: 8px;">#%d</td></tr>
			<tr><td style="padding: 8px; color: #666;">Customer</td><td style="padding: 8px;">%s</td></tr>
			<tr><td style="padding: 8px; color: #666;">Quantity</td><td style="padding: 8px;">%d</td></tr>
		</table>

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">Restock the product from the admin API.</p>
	</div>
</body>
</html>`,
		html.EscapeString(name), status, a.Threshold,
		html.EscapeString(a.ProductID), a.LastOrderID, html.EscapeString(a.LastCustomer), a.LastQuantity)
}
