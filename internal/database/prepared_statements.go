package database

// Requêtes CQL fréquentes. gocql prépare et met en cache chaque instruction
// à sa première exécution sur une session.
const (
	productColumns = `product_id, name, slug, description, price, discount_percentage, discounted_price,
		category, colors, sizes, images, in_stock, created_at, updated_at`

	stmtSelectProducts    = `SELECT ` + productColumns + ` FROM products`
	stmtSelectProductByID = `SELECT ` + productColumns + ` FROM products WHERE product_id = ?`
	stmtInsertProduct     = `INSERT INTO products (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmtDeleteProduct     = `DELETE FROM products WHERE product_id = ?`

	// Le slug est réservé par transaction légère (LWT) : deux écritures concurrentes
	// ne peuvent pas toutes deux l'obtenir.
	stmtSelectSlug  = `SELECT product_id FROM products_by_slug WHERE slug = ?`
	stmtClaimSlug   = `INSERT INTO products_by_slug (slug, product_id) VALUES (?, ?) IF NOT EXISTS`
	stmtReleaseSlug = `DELETE FROM products_by_slug WHERE slug = ? IF product_id = ?`

	orderColumns = `order_id, order_number, customer_email, customer_name, customer_address, items,
		subtotal, currency, payment_intent_id, status, created_at, updated_at`

	stmtSelectOrders    = `SELECT ` + orderColumns + ` FROM orders`
	stmtSelectOrderByID = `SELECT ` + orderColumns + ` FROM orders WHERE order_id = ?`
	stmtInsertOrder     = `INSERT INTO orders (` + orderColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmtUpdateStatus    = `UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ?`

	stmtSelectOrderByNumber = `SELECT order_id FROM orders_by_number WHERE order_number = ?`
	stmtInsertOrderByNumber = `INSERT INTO orders_by_number (order_number, order_id) VALUES (?, ?)`

	stmtSelectOrderByPayment = `SELECT order_id FROM orders_by_payment_intent WHERE payment_intent_id = ?`
	stmtInsertOrderByPayment = `INSERT INTO orders_by_payment_intent (payment_intent_id, order_id) VALUES (?, ?)`
)
