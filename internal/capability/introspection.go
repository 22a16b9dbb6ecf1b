package capability

import "context"

// capability.list and capability.get expose the static registry itself
// through the same Capability interface every other operation uses, so
// introspection is a capability call like any other rather than a
// side-channel API.

type capabilityListCapability struct{}

func (capabilityListCapability) Name() string          { return "capability.list" }
func (capabilityListCapability) Operation() OperationType { return OpPure }
func (capabilityListCapability) Handle(_ context.Context, req RequestEnvelope) ResponseEnvelope {
	return Ok(req, List())
}

type CapabilityGetPayload struct {
	Name string `json:"name"`
}

type capabilityGetCapability struct{}

func (capabilityGetCapability) Name() string          { return "capability.get" }
func (capabilityGetCapability) Operation() OperationType { return OpPure }
func (capabilityGetCapability) Handle(_ context.Context, req RequestEnvelope) ResponseEnvelope {
	p, ok := req.Payload.(CapabilityGetPayload)
	if !ok {
		return Err(req, InvalidRequest("capability.get requires a CapabilityGetPayload"))
	}
	c, ok := Get(p.Name)
	if !ok {
		return Err(req, NotFound("no such capability: "+p.Name))
	}
	return Ok(req, Descriptor{Name: c.Name(), Operation: c.Operation()})
}

// RegisterIntrospectionCapabilities registers capability.list and
// capability.get.
func RegisterIntrospectionCapabilities() {
	Register(capabilityListCapability{})
	Register(capabilityGetCapability{})
}

// Wire registers every capability namespace (introspection, app, workflow,
// session) into the static registry. Called once from cmd/ at process
// startup, before any transport begins dispatching requests.
func Wire() {
	RegisterIntrospectionCapabilities()
	RegisterAppCapabilities()
	RegisterWorkflowCapabilities()
	RegisterSessionCapabilities()
}
