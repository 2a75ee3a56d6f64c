// Package tool defines the contract boundary shared by the server and client
// sides of modalmcp.
//
// The package is intentionally split by concern:
//   - descriptor: tool descriptors and the schema subset they use
//   - catalog: the immutable, validated set of descriptors
//   - input: ordered JSON objects used as tool input
//   - envelope: the generic call request/response wire shapes
//   - type_system: schema declaration checks and input coercion
//   - error: structured error codes that cross every boundary
//   - observability: call and command observation hooks
//
// Nothing here knows about HTTP or process execution, so the dispatcher, the
// command runner and the client can share one contract.
package tool
