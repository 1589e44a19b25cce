package constants

// Generic Error Messages
const (
	MsgErrorNotFound       = "Error.NotFound"
	MsgErrorBadRequest     = "Error.BadRequest"
	MsgErrorInternalServer = "Error.InternalServer"
	MsgErrorInvalidInput   = "Error.InvalidInput"
	MsgErrorUnknownFlow    = "Error.UnknownFlow"
	MsgErrorDuplicateName  = "Error.DuplicateName"
)

// FormErrorKey returns the i18n key used to translate a field-level error kind.
func FormErrorKey(kind string) string {
	return "Form.Error." + kind
}

// FieldLabelKey returns the i18n key of a form field label.
func FieldLabelKey(field string) string {
	return "Form.Field." + field
}
