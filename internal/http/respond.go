package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"mosques/internal/core"
	applog "mosques/internal/log"
	"mosques/internal/services"
)

// Client-facing messages.
const (
	msgServerError        = "حدث خطأ في السيرفر"
	msgAllFieldsRequired  = "جميع البيانات مطلوبة"
	msgLoginFieldsMissing = "الرقم المدني وكلمة المرور مطلوبة"
	msgBadCredentials     = "بيانات الدخول غير صحيحة"
	msgWrongOldPassword   = "كلمة المرور القديمة غير صحيحة"
	msgOtherUser          = "لا يمكنك تعديل بيانات شخص آخر"
	msgUserNotFound       = "المستخدم غير موجود"
	msgUserExists         = "المستخدم موجود مسبقاً"
	msgMaterialNotFound   = "المادة غير موجودة"
	msgMaterialInUse      = "لا يمكن حذف المادة لوجود كميات مسجلة عليها"
	msgNotFound           = "غير موجود"
	msgConflict           = "تعارض في البيانات"
	msgForbidden          = "غير مصرح"
	msgTooManyAttempts    = "محاولات كثيرة، حاول مرة أخرى لاحقاً"
	msgMethodNotAllowed   = "الطريقة غير مسموحة"
	msgReportsFailed      = "حدث خطأ في تحديث التقارير"
	msgSheetReadFailed    = "حدث خطأ في قراءة البيانات"

	msgReceiptAdded    = "تم تسجيل الاستلام بنجاح"
	msgUserAdded       = "تم إضافة المستخدم بنجاح"
	msgPasswordChanged = "تم تغيير كلمة المرور بنجاح"
	msgMaterialAdded   = "تم إضافة المادة بنجاح"
	msgMaterialUpdated = "تم تحديث المادة بنجاح"
	msgMaterialDeleted = "تم حذف المادة بنجاح"
	msgReportsUpdated  = "تم تحديث جميع التقارير بنجاح"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type successBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// writeJSON encodes v before committing status. Encoding failures answer 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("Encoding response failed",
			applog.FieldComponent, applog.ComponentHTTP, applog.FieldError, err)
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(errorBody{Error: msgServerError})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeSuccess(w http.ResponseWriter, msg string, data any) {
	writeJSON(w, http.StatusOK, successBody{Success: true, Message: msg, Data: data})
}

var validationErrors = []error{
	core.ErrEmptyNationalID, core.ErrEmptyName, core.ErrEmptyMosque, core.ErrEmptyUnit,
	core.ErrInvalidRole, core.ErrInvalidMonth, core.ErrInvalidYear, core.ErrInvalidQuantity,
	core.ErrMissingWorker, core.ErrMissingLocation, core.ErrMissingRegistrar,
	services.ErrEmptyPassword,
}

func isValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	var be *badRequestError
	return errors.As(err, &be)
}

// messages overrides the generic message of an error class for one handler.
type messages map[error]string

// fail maps err to a status code and writes it. Unexpected errors are
// logged with the request ID and answered with a generic message.
func fail(w http.ResponseWriter, r *http.Request, err error, overrides messages) {
	var be *badRequestError
	if errors.As(err, &be) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: be.msg, Fields: be.fields})
		return
	}

	status, msg := http.StatusInternalServerError, msgServerError
	var class error
	switch {
	case isValidation(err):
		status, msg = http.StatusBadRequest, msgAllFieldsRequired
	case errors.Is(err, core.ErrInvalidCredentials):
		status, msg, class = http.StatusUnauthorized, msgBadCredentials, core.ErrInvalidCredentials
	case errors.Is(err, core.ErrForbidden):
		status, msg, class = http.StatusForbidden, msgForbidden, core.ErrForbidden
	case errors.Is(err, core.ErrNotFound):
		status, msg, class = http.StatusNotFound, msgNotFound, core.ErrNotFound
	case errors.Is(err, services.ErrMaterialInUse):
		status, msg, class = http.StatusConflict, msgMaterialInUse, services.ErrMaterialInUse
	case errors.Is(err, core.ErrConflict):
		status, msg, class = http.StatusConflict, msgConflict, core.ErrConflict
	}
	if m, ok := overrides[class]; ok && class != nil {
		msg = m
	}

	logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentHTTP)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			applog.FieldPath, r.URL.Path, applog.FieldError, err)
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			applog.FieldPath, r.URL.Path, applog.FieldStatusCode, status, applog.FieldError, err)
	}
	writeError(w, status, msg)
}
