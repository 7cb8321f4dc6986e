package payment

type MethodKind string

const (
	KindCash MethodKind = "cash"
	KindCard MethodKind = "card" // simulated stored-value card
)

type PaymentMethod struct {
	ID     int64
	Name   string
	Kind   MethodKind
	Active bool
}

// Method is the resolved payment choice for a checkout. The branch is on
// Kind, never on a database id.
type Method struct {
	MethodID int64
	Kind     MethodKind
	CardID   int64 // set only when Kind == KindCard
}

func Cash(methodID int64) Method {
	return Method{MethodID: methodID, Kind: KindCash}
}

func SimulatedCard(methodID, cardID int64) Method {
	return Method{MethodID: methodID, Kind: KindCard, CardID: cardID}
}

type Card struct {
	ID           int64
	UserID       string
	Number       string
	HolderName   string
	Expiry       string
	CVV          string
	BalanceCents int64
}
