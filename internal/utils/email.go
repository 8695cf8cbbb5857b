package utils

import (
	"bytes"
	"fmt"
	"html/template"

	"storefront_back_end/internal/models"
)

// Les données client (nom, adresse) sont échappées par html/template.
var orderConfirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Confirmation de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Merci pour votre commande, {{.Order.CustomerAddress.FirstName}} !</h2>
		<p>Votre paiement a été confirmé. Numéro de commande : <strong>{{.Order.OrderNumber}}</strong></p>
		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Produit</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Taille</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Quantité</th>
				</tr>
			</thead>
			<tbody>
			{{range .Order.Items}}
				<tr>
					<td style="padding: 10px; border: 1px solid #ddd;">{{.Name}}</td>
					<td style="padding: 10px; border: 1px solid #ddd;">{{if .Size}}{{.Size}}{{else}}-{{end}}</td>
					<td style="padding: 10px; border: 1px solid #ddd;">{{.Quantity}}</td>
				</tr>
			{{end}}
			</tbody>
		</table>
		<p style="font-size: 18px;"><strong>Total : {{.Total}}</strong></p>
		<h3>Livraison</h3>
		<p>
			{{.Order.CustomerName}}<br>
			{{.Order.CustomerAddress.Address}}<br>
			{{.Order.CustomerAddress.PostalCode}} {{.Order.CustomerAddress.City}}<br>
			{{.Order.CustomerAddress.Country}}
		</p>
	</div>
</body>
</html>`))

var orderStatusTmpl = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Mise à jour de commande</title>
</head>
<body style="margin: 0; padding: 40px 20px; font-family: Arial, sans-serif; background-color: #f5f5f5;">
	<div style="max-width: 600px; margin: auto; background-color: #ffffff; border-radius: 12px; padding: 24px;">
		<h1 style="color: {{.Color}};">{{.Icon}} Commande {{.Order.OrderNumber}}</h1>
		<p>Bonjour {{.Order.CustomerName}},</p>
		<p>{{.Message}}</p>
		<p>Statut actuel : <strong style="color: {{.Color}};">{{.Order.Status}}</strong></p>
		<p>Montant : {{.Total}}</p>
	</div>
</body>
</html>`))

// FormatAmount affiche un montant avec le symbole de sa devise si elle est connue.
func FormatAmount(amount float64, currencyCode string) string {
	if c, ok := models.LookupCurrency(currencyCode); ok {
		return fmt.Sprintf("%s%.2f", c.Symbol, amount)
	}
	return fmt.Sprintf("%.2f %s", amount, currencyCode)
}

// OrderConfirmationHTML génère le corps de l'e-mail envoyé après paiement.
func OrderConfirmationHTML(order models.Order) (string, error) {
	var buf bytes.Buffer
	err := orderConfirmationTmpl.Execute(&buf, map[string]interface{}{
		"Order": order,
		"Total": FormatAmount(order.Subtotal, order.Currency),
	})
	if err != nil {
		return "", fmt.Errorf("rendu e-mail confirmation: %w", err)
	}
	return buf.String(), nil
}

// OrderStatusHTML génère l'e-mail envoyé quand l'admin change le statut.
func OrderStatusHTML(order models.Order) (string, error) {
	var buf bytes.Buffer
	err := orderStatusTmpl.Execute(&buf, map[string]interface{}{
		"Order":   order,
		"Total":   FormatAmount(order.Subtotal, order.Currency),
		"Message": statusMessage(order.Status),
		"Icon":    statusIcon(order.Status),
		"Color":   template.CSS(statusColor(order.Status)),
	})
	if err != nil {
		return "", fmt.Errorf("rendu e-mail statut: %w", err)
	}
	return buf.String(), nil
}

func OrderStatusSubject(status models.OrderStatus) string {
	switch status {
	case models.OrderStatusProcessing:
		return "🛠️ Votre commande est en préparation"
	case models.OrderStatusShipped:
		return "📦 Votre commande a été expédiée"
	case models.OrderStatusDelivered:
		return "🎉 Votre commande a été livrée"
	case models.OrderStatusCancelled:
		return "❌ Commande annulée"
	default:
		return "📋 Mise à jour de votre commande"
	}
}

func statusMessage(status models.OrderStatus) string {
	switch status {
	case models.OrderStatusProcessing:
		return "Nous préparons votre commande."
	case models.OrderStatusShipped:
		return "Bonne nouvelle ! Votre commande a été expédiée et est en route vers vous."
	case models.OrderStatusDelivered:
		return "Votre commande a été livrée. Nous espérons que vous en êtes satisfait !"
	case models.OrderStatusCancelled:
		return "Votre commande a été annulée. Si vous avez des questions, n'hésitez pas à nous contacter."
	default:
		return "Le statut de votre commande a été mis à jour."
	}
}

func statusIcon(status models.OrderStatus) string {
	switch status {
	case models.OrderStatusShipped:
		return "📦"
	case models.OrderStatusDelivered:
		return "🎉"
	case models.OrderStatusCancelled:
		return "❌"
	default:
		return "📋"
	}
}

func statusColor(status models.OrderStatus) string {
	switch status {
	case models.OrderStatusShipped:
		return "#3b82f6"
	case models.OrderStatusDelivered:
		return "#8b5cf6"
	case models.OrderStatusCancelled:
		return "#ef4444"
	case models.OrderStatusCompleted:
		return "#10b981"
	default:
		return "#6b7280"
	}
}
