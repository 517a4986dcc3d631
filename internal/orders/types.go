package orders

// Status is the outcome published for an order.
type Status string

// Order statuses, carried in the OrderStatus message attribute.
const (
	StatusAccepted Status = "Accepted"
	StatusRejected Status = "Rejected"
)

// Record is the item stored in the orders DynamoDB table.
type Record struct {
	UUID  string      `dynamodbav:"uuid"`  // PK
	Order interface{} `dynamodbav:"order"` // original request payload
}

// PineappleAnalysis is the result of checking an order's flavour.
type PineappleAnalysis struct {
	ContainsPineapple bool `json:"containsPineapple"`
}
