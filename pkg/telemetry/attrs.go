package telemetry

import "go.opentelemetry.io/otel/attribute"

const (
	PointerKey = attribute.Key("fsm.pointer")
	StepKey    = attribute.Key("fsm.step")
	EventKey   = attribute.Key("fsm.event")
	StateKey   = attribute.Key("fsm.state")
)

func PointerID(id string) attribute.KeyValue {
	return PointerKey.String(id)
}

func StepID[T ~uint64](id T) attribute.KeyValue {
	return StepKey.Int64(int64(id))
}

func EventID(id string) attribute.KeyValue {
	return EventKey.String(id)
}

func State[T interface{ String() string }](state T) attribute.KeyValue {
	return StateKey.String(state.String())
}
