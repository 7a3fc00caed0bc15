// Package patch applies an RFC 6902 JSON Patch document to a resolved IR
// value, letting a consumer correct an extracted intent payload without
// hand-rolling path surgery against the IR tree directly.
package patch

import (
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/snrraptopack/slim/ir"
)

// Apply marshals v to JSON, applies patchDoc (an RFC 6902 patch document)
// via evanphx/json-patch, and unmarshals the result back into a fresh IR
// tree with its own identity space.
func Apply(v *ir.Node, patchDoc []byte) (*ir.Node, error) {
	d, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	ops, err := jsonpatch.DecodePatch(patchDoc)
	if err != nil {
		return nil, err
	}
	out, err := ops.Apply(d)
	if err != nil {
		return nil, err
	}
	var raw interface{}
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, err
	}
	seq := ir.NewIDSeq()
	return ir.FromJSON(seq, raw), nil
}
