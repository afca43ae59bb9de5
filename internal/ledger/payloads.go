package ledger

import "encoding/json"

// Actions understood by the ledger automation endpoint.
const (
	ActionEnrollMultiple = "inscribir_multiple"
	ActionConfirmPayment = "confirmar_pago"
	ActionDeactivateUser = "desactivar_usuario"
	ActionReactivateUser = "reactivar_usuario"
	ActionUploadReceipt  = "subir_comprobante"
	ActionListSchedules  = "horarios"
	ActionMyEnrollments  = "mis_inscripciones"
	ActionConsultation   = "consultar_inscripcion"
	ActionListEnrolled   = "listar_inscritos"
)

// Query parameters of the read actions.
const (
	ParamBirthYear  = "año_nacimiento"
	ParamNationalID = "dni"
	ParamDay        = "dia"
	ParamSport      = "deporte"
)

const (
	fieldToken  = "token"
	fieldAction = "action"
)

// Response is the ledger JSON envelope. Raw keeps the full body for action-specific decoding.
type Response struct {
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
	Message    string        `json:"message,omitempty"`
	ReceiptURL string        `json:"url_comprobante,omitempty"`
	Documents  *DocumentURLs `json:"urls_documentos,omitempty"`
	Payment    *PaymentInfo  `json:"pago,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// decodeResponse decodes the envelope strictly and the optional blocks one by one. A block with
// a mistyped field keeps whatever decoded and is reported in skipped.
func decodeResponse(raw []byte) (out *Response, skipped []string, err error) {
	var envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, nil, err
	}
	out = &Response{Success: envelope.Success, Error: envelope.Error, Message: envelope.Message, Raw: raw}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out, nil, nil
	}
	optional := []struct {
		name string
		dest interface{}
	}{
		{"url_comprobante", &out.ReceiptURL},
		{"urls_documentos", &out.Documents},
		{"pago", &out.Payment},
	}
	for _, field := range optional {
		value, ok := fields[field.name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, field.dest); err != nil {
			skipped = append(skipped, field.name)
		}
	}
	return out, skipped, nil
}

// DocumentURLs are the stored copies of the identity documents.
type DocumentURLs struct {
	IDFront string `json:"dni_frontal,omitempty"`
	IDBack  string `json:"dni_reverso,omitempty"`
	Photo   string `json:"foto_carnet,omitempty"`
}

// PaymentInfo is the payment block some actions return.
type PaymentInfo struct {
	Status     string  `json:"estado,omitempty"`
	Amount     float64 `json:"monto,omitempty"`
	ReceiptURL string  `json:"url_comprobante,omitempty"`
}

// Receipt returns the receipt URL from the top level or, failing that, the payment block.
func (r *Response) Receipt() string {
	if r == nil {
		return ""
	}
	if r.ReceiptURL != "" {
		return r.ReceiptURL
	}
	if r.Payment != nil {
		return r.Payment.ReceiptURL
	}
	return ""
}

// Decode unmarshals the raw body into v.
func (r *Response) Decode(v interface{}) error {
	if r == nil || len(r.Raw) == 0 {
		return ErrInvalidResponse
	}
	return json.Unmarshal(r.Raw, v)
}

// EnrollPayload is the body of inscribir_multiple.
type EnrollPayload struct {
	OperationCode string        `json:"codigo_operacion"`
	Student       StudentRecord `json:"alumno"`
	Slots         []SlotRecord  `json:"horarios"`
}

// StudentRecord mirrors the ledger's student columns.
type StudentRecord struct {
	NationalID       string `json:"dni"`
	FirstName        string `json:"nombres"`
	PaternalSurname  string `json:"apellido_paterno"`
	MaternalSurname  string `json:"apellido_materno,omitempty"`
	BirthDate        string `json:"fecha_nacimiento,omitempty"`
	Sex              string `json:"sexo,omitempty"`
	Phone            string `json:"telefono,omitempty"`
	Email            string `json:"email,omitempty"`
	Address          string `json:"direccion,omitempty"`
	InsuranceType    string `json:"seguro_tipo,omitempty"`
	MedicalCondition string `json:"condicion_medica,omitempty"`
	GuardianName     string `json:"apoderado,omitempty"`
	GuardianPhone    string `json:"telefono_apoderado,omitempty"`
	IDFrontImage     string `json:"dni_frontal,omitempty"`
	IDBackImage      string `json:"dni_reverso,omitempty"`
	PhotoImage       string `json:"foto_carnet,omitempty"`
	ReceiptImage     string `json:"comprobante,omitempty"`
	Status           string `json:"estado,omitempty"`
	PaymentStatus    string `json:"estado_pago,omitempty"`
}

// SlotRecord mirrors one selected slot, also used by the schedule fallback.
type SlotRecord struct {
	SlotID       string  `json:"horario_id"`
	Sport        string  `json:"deporte"`
	DayOfWeek    string  `json:"dia,omitempty"`
	StartTime    string  `json:"hora_inicio,omitempty"`
	EndTime      string  `json:"hora_fin,omitempty"`
	Category     string  `json:"categoria,omitempty"`
	Level        string  `json:"nivel,omitempty"`
	Plan         string  `json:"plan,omitempty"`
	Price        float64 `json:"precio,omitempty"`
	Capacity     int     `json:"cupo_maximo,omitempty"`
	Occupied     int     `json:"cupos_ocupados,omitempty"`
	MinBirthYear *int    `json:"ano_min,omitempty"`
	MaxBirthYear *int    `json:"ano_max,omitempty"`
}

// EnrollmentRecord is an enrollment row as the ledger reports it.
type EnrollmentRecord struct {
	OperationCode string  `json:"codigo_operacion,omitempty"`
	Sport         string  `json:"deporte"`
	Plan          string  `json:"plan,omitempty"`
	MonthlyPrice  float64 `json:"precio_mensual,omitempty"`
	Status        string  `json:"estado,omitempty"`
	EnrolledAt    string  `json:"fecha_inscripcion,omitempty"`
}

// ScheduleList is the body of the horarios read action.
type ScheduleList struct {
	Slots []SlotRecord `json:"horarios"`
}

// EnrollmentList is the body of mis_inscripciones.
type EnrollmentList struct {
	Enrollments []EnrollmentRecord `json:"inscripciones"`
}

// Consultation is the body of consultar_inscripcion.
type Consultation struct {
	Student     StudentRecord      `json:"alumno"`
	Payment     *PaymentInfo       `json:"pago,omitempty"`
	Enrollments []EnrollmentRecord `json:"inscripciones"`
	Slots       []SlotRecord       `json:"horarios"`
}

// RosterEntry is one student of listar_inscritos.
type RosterEntry struct {
	Student StudentRecord `json:"alumno"`
	Sport   string        `json:"deporte"`
	Slot    SlotRecord    `json:"horario"`
}

// Roster is the body of listar_inscritos.
type Roster struct {
	Entries []RosterEntry `json:"inscritos"`
}

// PaymentConfirmationPayload is the body of confirmar_pago.
type PaymentConfirmationPayload struct {
	NationalID      string   `json:"dni"`
	Amount          *float64 `json:"monto_pago"`
	OperationNumber *string  `json:"numero_operacion"`
	Notes           *string  `json:"notas"`
	ConfirmedAt     string   `json:"fecha_confirmacion"`
}

// AccountPayload is the body of desactivar_usuario and reactivar_usuario.
type AccountPayload struct {
	NationalID string `json:"dni"`
}

// ReceiptPayload is the body of subir_comprobante.
type ReceiptPayload struct {
	OperationCode string        `json:"codigo_operacion"`
	NationalID    string        `json:"dni"`
	Student       *StudentNames `json:"alumno,omitempty"`
	Image         string        `json:"imagen"`
	FileName      string        `json:"nombre_archivo"`
}

// StudentNames identifies the student on uploaded files.
type StudentNames struct {
	FirstName string `json:"nombres"`
	LastName  string `json:"apellidos"`
}
