package payload

import (
	"encoding/json"
	"fmt"
)

// Wire keys common to every encoded payload.
const (
	keyTransactionType = "transaction_type"
	keySender          = "sender"
	keyID              = "id"
)

// Encode serialises p into canonical JSON bytes: a self-describing object
// of shape {"transaction_type": tag, "sender": ..., "id": ..., <fields>}.
//
// encoding/json sorts map[string]any keys alphabetically when marshalling,
// so building the wire object as a map and marshalling it directly already
// gives byte-identical output for equal payloads regardless of the
// insertion order of optional fields. Cross-node signature verification
// needs exactly that, and no bespoke canonicalisation pass.
func Encode(p Payload) ([]byte, error) {
	obj := p.Fields()
	if obj == nil {
		obj = make(map[string]any)
	}
	obj[keyTransactionType] = p.TransactionType()
	obj[keySender] = p.Sender()
	obj[keyID] = p.ID()
	return json.Marshal(obj)
}

// Decode parses JSON bytes, reads the transaction_type tag, and invokes
// the registered constructor for that tag with the remaining fields.
func Decode(reg *Registry, data []byte) (Payload, error) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("payload: decode: %w", err)
	}

	tagRaw, ok := obj[keyTransactionType]
	if !ok {
		return nil, fmt.Errorf("payload: decode: missing %q", keyTransactionType)
	}
	tag, ok := tagRaw.(string)
	if !ok {
		return nil, fmt.Errorf("payload: decode: %q is not a string", keyTransactionType)
	}

	ctor, ok := reg.Lookup(tag)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTransactionTypeNotRecognized, tag)
	}

	sender, _ := obj[keySender].(string)
	id, _ := obj[keyID].(string)
	delete(obj, keyTransactionType)
	delete(obj, keySender)
	delete(obj, keyID)

	p, err := ctor(sender, id, obj)
	if err != nil {
		return nil, fmt.Errorf("payload: decode %q: %w", tag, err)
	}
	return p, nil
}

// DecodeDefault decodes using DefaultRegistry.
func DecodeDefault(data []byte) (Payload, error) {
	return Decode(DefaultRegistry, data)
}
