package shapelet

import (
	"encoding/json"
	"fmt"

	"github.com/banshee-data/shapelet.report/internal/geom"
)

// shapeletFunctionJSON is the wire form of a ShapeletFunction. All four
// fields round-trip exactly: order and basis as discrete values, ellipse
// parameters and coefficients as float64 (encoding/json emits the shortest
// representation that decodes to the identical bits).
type shapeletFunctionJSON struct {
	Order        int          `json:"order"`
	Basis        string       `json:"basis"`
	Ellipse      geom.Ellipse `json:"ellipse"`
	Coefficients []float64    `json:"coefficients"`
}

// MarshalJSON implements json.Marshaler.
func (f *ShapeletFunction) MarshalJSON() ([]byte, error) {
	return json.Marshal(shapeletFunctionJSON{
		Order:        f.order,
		Basis:        f.basis.String(),
		Ellipse:      f.ellipse,
		Coefficients: f.coefficients,
	})
}

// UnmarshalJSON implements json.Unmarshaler, validating the same invariants
// as NewShapeletFunction.
func (f *ShapeletFunction) UnmarshalJSON(data []byte) error {
	var w shapeletFunctionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("shapelet: decoding function: %w", err)
	}
	basis, err := ParseBasisType(w.Basis)
	if err != nil {
		return err
	}
	nf, err := NewShapeletFunction(w.Order, basis, w.Coefficients)
	if err != nil {
		return err
	}
	nf.ellipse = w.Ellipse
	*f = *nf
	return nil
}

// multiShapeletFunctionJSON is the wire form of a MultiShapeletFunction.
type multiShapeletFunctionJSON struct {
	Elements []*ShapeletFunction `json:"elements"`
}

// MarshalJSON implements json.Marshaler.
func (m *MultiShapeletFunction) MarshalJSON() ([]byte, error) {
	return json.Marshal(multiShapeletFunctionJSON{Elements: m.elements})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *MultiShapeletFunction) UnmarshalJSON(data []byte) error {
	var w multiShapeletFunctionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("shapelet: decoding multi-function: %w", err)
	}
	m.elements = w.Elements
	return nil
}
