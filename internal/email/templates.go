package email

import "fmt"

// BuildStockAlertBody builds the HTML body for a low stock alert email
func BuildStockAlertBody(productName string, quantity, threshold int) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: linear-gradient(135deg, #f6ad55 0%%, #ed8936 100%%); padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Low stock warning</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">A product in your catalog has dropped to its alert threshold.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Product</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold;">%s</p>
			<p style="margin: 10px 0 0 0; font-size: 14px; color: #666;">Remaining stock</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold;">%d (alert threshold: %d)</p>
		</div>

		<p>Consider restocking before it sells out.</p>
	</div>
</body>
</html>`, productName, quantity, threshold)
}

// BuildOutOfStockBody builds the HTML body for an out of stock email
func BuildOutOfStockBody(productName string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: linear-gradient(135deg, #fc8181 0%%, #e53e3e 100%%); padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Out of stock</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">The following product has sold out and can no longer be sold:</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 18px; font-weight: bold;">%s</p>
		</div>

		<p>Sales for this product will fail until it is restocked.</p>
	</div>
</body>
</html>`, productName)
}
