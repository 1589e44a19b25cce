package flow

import (
	"fmt"

	"omvsetup/constants"
	"omvsetup/omv"
)

// Record is a configuration record as submitted through the setup form.
type Record struct {
	DisplayName string
	Host        string
	Username    string
	Password    string
	UseSSL      bool
	VerifySSL   bool
}

// ToMap returns the flat mapping persisted for the record.
func (r Record) ToMap() map[string]interface{} {
	return map[string]interface{}{
		constants.ConfName:      r.DisplayName,
		constants.ConfHost:      r.Host,
		constants.ConfUsername:  r.Username,
		constants.ConfPassword:  r.Password,
		constants.ConfSSL:       r.UseSSL,
		constants.ConfVerifySSL: r.VerifySSL,
	}
}

// OMVConfig returns the connection parameters of the record.
func (r Record) OMVConfig() omv.Config {
	return omv.Config{
		Host:      r.Host,
		Username:  r.Username,
		Password:  r.Password,
		UseSSL:    r.UseSSL,
		VerifySSL: r.VerifySSL,
	}
}

// RecordFromMap reads a coerced setup mapping.
func RecordFromMap(m map[string]interface{}) (Record, error) {
	var r Record
	var ok bool
	if r.DisplayName, ok = m[constants.ConfName].(string); !ok {
		return Record{}, &InputError{Field: constants.ConfName, Reason: "is required"}
	}
	if r.Host, ok = m[constants.ConfHost].(string); !ok {
		return Record{}, &InputError{Field: constants.ConfHost, Reason: "is required"}
	}
	if r.Username, ok = m[constants.ConfUsername].(string); !ok {
		return Record{}, &InputError{Field: constants.ConfUsername, Reason: "is required"}
	}
	if r.Password, ok = m[constants.ConfPassword].(string); !ok {
		return Record{}, &InputError{Field: constants.ConfPassword, Reason: "is required"}
	}
	if r.UseSSL, ok = m[constants.ConfSSL].(bool); !ok {
		return Record{}, &InputError{Field: constants.ConfSSL, Reason: fmt.Sprintf("expects a boolean, got %T", m[constants.ConfSSL])}
	}
	if r.VerifySSL, ok = m[constants.ConfVerifySSL].(bool); !ok {
		return Record{}, &InputError{Field: constants.ConfVerifySSL, Reason: fmt.Sprintf("expects a boolean, got %T", m[constants.ConfVerifySSL])}
	}
	return r, nil
}
