package client

// Operation names used in error wrapping and metric labels.
const (
	// -----------------------------
	// DISCOVERY
	// -----------------------------
	OpResolveWallet = "resolve_wallet"

	// -----------------------------
	// GRANT NEGOTIATION
	// -----------------------------
	OpRequestGrant  = "request_grant"
	OpContinueGrant = "continue_grant"

	// -----------------------------
	// RESOURCE CREATION
	// -----------------------------
	OpCreateIncomingPayment = "create_incoming_payment"
	OpCreateQuote           = "create_quote"
	OpCreateOutgoingPayment = "create_outgoing_payment"
)

// Resource server collection paths, relative to the resource server base URL.
const (
	pathIncomingPayments = "/incoming-payments"
	pathQuotes           = "/quotes"
	pathOutgoingPayments = "/outgoing-payments"
)
