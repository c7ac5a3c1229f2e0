package report

import (
	"encoding/json"
	"math"
	"strings"

	"mosques/internal/core"
)

// Delivery compares what a governorate should have received of one
// material with what was recorded.
type Delivery struct {
	Allocated    float64 `json:"allocated"`
	Received     float64 `json:"received"`
	NotDelivered float64 `json:"notDelivered"`
}

// MaterialsByGovernorate is the material x governorate delivery matrix.
// Materials keep table order; governorates keep first-seen order.
type MaterialsByGovernorate struct {
	Materials    []string
	Governorates []string
	Data         map[string]map[string]Delivery
}

// Cell returns the delivery figures for one material and governorate.
func (m MaterialsByGovernorate) Cell(material, governorate string) Delivery {
	return m.Data[material][governorate]
}

func (m MaterialsByGovernorate) MarshalJSON() ([]byte, error) {
	materials, governorates := m.Materials, m.Governorates
	if materials == nil {
		materials = []string{}
	}
	if governorates == nil {
		governorates = []string{}
	}
	data := m.Data
	if data == nil {
		data = map[string]map[string]Delivery{}
	}
	return json.Marshal(struct {
		Materials    []string                       `json:"materials"`
		Governorates []string                       `json:"governorates"`
		Data         map[string]map[string]Delivery `json:"data"`
	}{materials, governorates, data})
}

// ByMaterialAndGovernorate computes allocated = quantity per mosque times the
// receipts booked in the governorate, received = sum of the material's
// column, notDelivered = max(0, allocated - received).
func ByMaterialAndGovernorate(receipts []core.Receipt, materials []core.Material) MaterialsByGovernorate {
	out := MaterialsByGovernorate{Data: make(map[string]map[string]Delivery)}

	counts := make(map[string]int)
	for _, r := range receipts {
		if !r.Recorded() {
			continue
		}
		gov := strings.TrimSpace(r.Governorate)
		if gov == "" {
			continue
		}
		if _, ok := counts[gov]; !ok {
			out.Governorates = append(out.Governorates, gov)
		}
		counts[gov]++
	}

	for i, m := range materials {
		if _, dup := out.Data[m.Name]; !dup {
			out.Materials = append(out.Materials, m.Name)
			out.Data[m.Name] = make(map[string]Delivery)
		}
		received := make(map[string]float64)
		for _, r := range receipts {
			if !r.Recorded() {
				continue
			}
			gov := strings.TrimSpace(r.Governorate)
			if gov == "" {
				continue
			}
			received[gov] += r.QuantityAt(i)
		}
		for _, gov := range out.Governorates {
			d := out.Data[m.Name][gov]
			d.Allocated += m.QuantityPerMosque * float64(counts[gov])
			d.Received += received[gov]
			d.NotDelivered = math.Max(0, d.Allocated-d.Received)
			out.Data[m.Name][gov] = d
		}
	}
	return out
}

// Allocation is the per-mosque entitlement of one material.
type Allocation struct {
	MaterialID   int     `json:"materialId"`
	MaterialName string  `json:"materialName"`
	Unit         string  `json:"unit"`
	Quantity     float64 `json:"quantity"`
}

// Allocations lists the uniform allocation every mosque is entitled to.
func Allocations(materials []core.Material) []Allocation {
	out := make([]Allocation, 0, len(materials))
	for _, m := range materials {
		out = append(out, Allocation{MaterialID: m.ID, MaterialName: m.Name, Unit: m.Unit, Quantity: m.QuantityPerMosque})
	}
	return out
}
