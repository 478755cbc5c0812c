package nodes

// Node names used by the default topology and the experiment registry.
const (
	NodeMemory   = "memory"
	NodeVision   = "vision"
	NodeIntent   = "intent"
	NodeShopping = "shopping"
	NodeWriter   = "writer"
	NodeProduct  = "product"
)

// ExtraAgentKey tags persisted assistant messages with the agent that
// produced them. The shopping node counts its prior interview questions in
// history through this tag, so it survives the JSON round trip to storage.
const ExtraAgentKey = "agent"
