package report

import (
	"strings"

	"mosques/internal/core"
)

// Filter narrows a receipt search. Zero values mean "no filter".
type Filter struct {
	Governorate    string
	Zone           string
	Mosque         string
	RegistrarName  string
	RegistrarPhone string
	WorkerName     string
	Month          int
	Year           int
}

func (f Filter) Empty() bool {
	return f == Filter{}
}

// Match applies every set filter. Text filters are case-insensitive
// substring matches except the phone, which is matched as typed.
func (f Filter) Match(r core.Receipt) bool {
	if !containsFold(r.Governorate, f.Governorate) ||
		!containsFold(r.Zone, f.Zone) ||
		!containsFold(r.Mosque, f.Mosque) ||
		!containsFold(r.RegistrarName, f.RegistrarName) {
		return false
	}
	if f.RegistrarPhone != "" && !strings.Contains(r.RegistrarPhone, f.RegistrarPhone) {
		return false
	}
	if f.WorkerName != "" {
		first := r.Worker.Name != "" && containsFold(r.Worker.Name, f.WorkerName)
		second := r.SecondWorker.Name != "" && containsFold(r.SecondWorker.Name, f.WorkerName)
		if !first && !second {
			return false
		}
	}
	if f.Month != 0 || f.Year != 0 {
		m, y, ok := r.Period()
		if !ok {
			return false
		}
		if f.Month != 0 && m != f.Month {
			return false
		}
		if f.Year != 0 && y != f.Year {
			return false
		}
	}
	return true
}

// Search returns the receipts matching f in table order.
func Search(receipts []core.Receipt, f Filter) []core.Receipt {
	out := make([]core.Receipt, 0)
	for _, r := range receipts {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func containsFold(value, needle string) bool {
	if needle == "" {
		return true
	}
	if value == "" {
		return false
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(needle))
}
