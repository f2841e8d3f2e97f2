// Package attendance covers both sides of the attendance surface: the
// employee check-in/out flow and the admin listings, including the detail
// view that is gated behind a short-lived action capability.
package attendance

import (
	"time"

	validation "github.com/jellydator/validation"

	appvalidation "github.com/geoasistencia/console/internal/validation"
)

// Registration types.
const (
	TipoEntrada = "entrada"
	TipoSalida  = "salida"
)

// Registration modes. App mode carries device coordinates; manual mode
// carries a written explanation and goes through admin review.
const (
	ModoApp    = "app"
	ModoManual = "manual"
)

// RegisterInput is the employee check-in/out request.
type RegisterInput struct {
	Tipo     string   `json:"tipo"`
	Modo     string   `json:"modo"`
	Latitud  *float64 `json:"latitud,omitempty"`
	Longitud *float64 `json:"longitud,omitempty"`
	Detalle  string   `json:"detalle,omitempty"`
}

// Validate enforces the per-mode field requirements before any network call.
// App mode needs in-range coordinates; manual mode needs an explanation of at
// least the backend's minimum length.
func (in RegisterInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Tipo, validation.Required, validation.In(TipoEntrada, TipoSalida)),
		validation.Field(&in.Modo, validation.Required, validation.In(ModoApp, ModoManual)),
	)
	if err != nil {
		return appvalidation.WrapValidationError(err)
	}

	switch in.Modo {
	case ModoApp:
		err = validation.ValidateStruct(&in,
			validation.Field(&in.Latitud, validation.NotNil),
			validation.Field(&in.Longitud, validation.NotNil),
		)
		if err == nil && in.Latitud != nil && in.Longitud != nil {
			err = validation.Errors{
				"latitud":  appvalidation.Latitude.Validate(*in.Latitud),
				"longitud": appvalidation.Longitude.Validate(*in.Longitud),
			}.Filter()
		}
	case ModoManual:
		err = validation.ValidateStruct(&in,
			validation.Field(&in.Detalle, validation.Required, appvalidation.Justification),
		)
	}
	return appvalidation.WrapValidationError(err)
}

// RegisterResult is the backend's acknowledgement of a registration.
type RegisterResult struct {
	ID            string `json:"id"`
	Estado        string `json:"estado"`
	DentroDeRango bool   `json:"dentro_de_rango"`
	Mensaje       string `json:"mensaje"`
}

// Record is one attendance row as listed to employees and admins. Listings
// carry no precise coordinates; those live behind the detail view.
type Record struct {
	ID        string    `json:"id"`
	UsuarioID string    `json:"usuario_id"`
	Codigo    string    `json:"codigo"`
	Tipo      string    `json:"tipo"`
	Modo      string    `json:"modo"`
	SedeID    string    `json:"sede_id"`
	CreadoEn  time.Time `json:"creado_en"`
}

// RecordDetail is the sensitive expansion of a record, only reachable with a
// valid ATTENDANCE_VIEW capability.
type RecordDetail struct {
	Record
	Latitud       *float64 `json:"latitud"`
	Longitud      *float64 `json:"longitud"`
	Precision     *float64 `json:"precision"`
	Detalle       string   `json:"detalle"`
	DentroDeRango *bool    `json:"dentro_de_rango"`
	Dispositivo   string   `json:"dispositivo"`
}

// SummaryRow is one row of the per-user attendance summary.
type SummaryRow struct {
	UsuarioID string `json:"usuario_id"`
	Codigo    string `json:"codigo"`
	Entradas  int    `json:"entradas"`
	Salidas   int    `json:"salidas"`
}

// Missing is one employee with no registration for the queried day.
type Missing struct {
	UsuarioID string `json:"usuario_id"`
	Codigo    string `json:"codigo"`
	SedeID    string `json:"sede_id"`
}

// ReportRow is one aggregated row of the attendance report.
type ReportRow struct {
	Fecha    string `json:"fecha"`
	Codigo   string `json:"codigo"`
	Entradas int    `json:"entradas"`
	Salidas  int    `json:"salidas"`
	Faltas   int    `json:"faltas"`
}

// Dashboard is the admin home summary.
type Dashboard struct {
	TotalUsuarios      int `json:"total_usuarios"`
	AsistenciasHoy     int `json:"asistencias_hoy"`
	FaltantesHoy       int `json:"faltantes_hoy"`
	ManualesPendientes int `json:"manuales_pendientes"`
}
