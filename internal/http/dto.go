package http

import (
	"strings"

	"mosques/internal/core"
	"mosques/internal/report"
	"mosques/internal/services"
)

type userDTO struct {
	NationalID string    `json:"nationalId"`
	Name       string    `json:"name"`
	Mosque     string    `json:"mosque"`
	Role       core.Role `json:"role"`
}

func toUserDTO(u core.User) userDTO {
	return userDTO{NationalID: u.NationalID, Name: u.Name, Mosque: u.Mosque, Role: u.Role}
}

type materialDTO struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
}

func toMaterialDTOs(ms []core.Material) []materialDTO {
	out := make([]materialDTO, 0, len(ms))
	for _, m := range ms {
		out = append(out, materialDTO{ID: m.ID, Name: m.Name, Unit: m.Unit, Quantity: m.QuantityPerMosque})
	}
	return out
}

func allocationDTOs(as []report.Allocation) []materialDTO {
	out := make([]materialDTO, 0, len(as))
	for _, a := range as {
		out = append(out, materialDTO{ID: a.MaterialID, Name: a.MaterialName, Unit: a.Unit, Quantity: a.Quantity})
	}
	return out
}

type receiptDTO struct {
	Timestamp              string                  `json:"timestamp"`
	RegistrarNationalID    string                  `json:"registrarNationalId"`
	RegistrarName          string                  `json:"registrarName"`
	Mosque                 string                  `json:"mosque"`
	Governorate            string                  `json:"governorate"`
	Zone                   string                  `json:"zone"`
	Section                string                  `json:"section"`
	MosqueName             string                  `json:"mosqueName"`
	RegistrarPhone         string                  `json:"registrarPhone"`
	WorkerName             string                  `json:"workerName"`
	WorkerNationalID       string                  `json:"workerNationalId"`
	SecondWorkerName       string                  `json:"secondWorkerName"`
	SecondWorkerNationalID string                  `json:"secondWorkerNationalId"`
	Month                  int                     `json:"month"`
	Year                   int                     `json:"year"`
	Materials              []core.MaterialQuantity `json:"materials"`
}

func toReceiptDTOs(views []services.ReceiptView) []receiptDTO {
	out := make([]receiptDTO, 0, len(views))
	for _, v := range views {
		r := v.Receipt
		materials := v.Materials
		if materials == nil {
			materials = []core.MaterialQuantity{}
		}
		out = append(out, receiptDTO{
			Timestamp:              r.RawTimestamp,
			RegistrarNationalID:    r.RegistrarNationalID,
			RegistrarName:          r.RegistrarName,
			Mosque:                 r.Mosque,
			Governorate:            r.Governorate,
			Zone:                   r.Zone,
			Section:                r.Section,
			MosqueName:             r.MosqueName,
			RegistrarPhone:         r.RegistrarPhone,
			WorkerName:             r.Worker.Name,
			WorkerNationalID:       r.Worker.NationalID,
			SecondWorkerName:       r.SecondWorker.Name,
			SecondWorkerNationalID: r.SecondWorker.NationalID,
			Month:                  r.Month,
			Year:                   r.Year,
			Materials:              materials,
		})
	}
	return out
}

type loginRequest struct {
	NationalID string `json:"nationalId" validate:"notblank"`
	Password   string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	NationalID  string `json:"nationalId" validate:"notblank"`
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"notblank"`
}

type addUserRequest struct {
	NationalID string `json:"nationalId" validate:"notblank"`
	Name       string `json:"name" validate:"notblank"`
	Mosque     string `json:"mosque" validate:"notblank"`
	Role       string `json:"role"`
}

type materialRequest struct {
	Name     string    `json:"name" validate:"notblank"`
	Unit     string    `json:"unit" validate:"notblank"`
	Quantity flexFloat `json:"quantity" validate:"gt=0,lte=1000000000"`
}

func (m materialRequest) material(id int) core.Material {
	return core.Material{ID: id, Name: m.Name, Unit: m.Unit, QuantityPerMosque: float64(m.Quantity)}
}

type receivedMaterial struct {
	MaterialID       flexInt   `json:"materialId" validate:"gte=1"`
	ReceivedQuantity flexFloat `json:"receivedQuantity" validate:"gte=0,lte=1000000000"`
}

type addReceiptRequest struct {
	Mosque                 string             `json:"mosque" validate:"notblank"`
	Governorate            string             `json:"governorate" validate:"notblank"`
	Zone                   string             `json:"zone" validate:"notblank"`
	Section                string             `json:"section" validate:"notblank"`
	MosqueName             string             `json:"mosqueName" validate:"notblank"`
	RegistrarPhone         string             `json:"registrarPhone" validate:"notblank"`
	WorkerName             string             `json:"workerName" validate:"notblank"`
	WorkerNationalID       string             `json:"workerNationalId" validate:"notblank"`
	SecondWorkerName       string             `json:"secondWorkerName"`
	SecondWorkerNationalID string             `json:"secondWorkerNationalId"`
	Month                  flexInt            `json:"month" validate:"min=1,max=12"`
	Year                   flexInt            `json:"year" validate:"min=2000,max=2100"`
	Materials              []receivedMaterial `json:"materials" validate:"required,dive"`
}

func (a addReceiptRequest) receipt() services.NewReceipt {
	in := services.NewReceipt{
		Mosque:         a.Mosque,
		Governorate:    a.Governorate,
		Zone:           a.Zone,
		Section:        a.Section,
		MosqueName:     a.MosqueName,
		RegistrarPhone: a.RegistrarPhone,
		Worker:         core.Worker{Name: a.WorkerName, NationalID: a.WorkerNationalID},
		SecondWorker:   core.Worker{Name: strings.TrimSpace(a.SecondWorkerName), NationalID: strings.TrimSpace(a.SecondWorkerNationalID)},
		Month:          int(a.Month),
		Year:           int(a.Year),
	}
	for _, m := range a.Materials {
		in.Materials = append(in.Materials, core.MaterialQuantity{
			MaterialID:       int(m.MaterialID),
			ReceivedQuantity: float64(m.ReceivedQuantity),
		})
	}
	return in
}
