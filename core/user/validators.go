package user

import (
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/coding7860/sparkminds-backend/core"
)

var (
	roleTag  = "role"
	roleText = "role must be one of: " + strings.Join(AllRoles, ", ")

	statusTag  = "status"
	statusText = "status must be one of: " + strings.Join(AllStatuses, ", ")

	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must be at least %d characters long", pwdMinLen)

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to the username or email"

	pwdNoCommonTag  = "pwdnocommon"
	pwdNoCommonText = "password is too common"
	commonPasswords = map[string]struct{}{
		"123456": {}, "1234567": {}, "12345678": {}, "123456789": {}, "1234567890": {},
		"password": {}, "password1": {}, "password123": {}, "passw0rd": {}, "qwerty": {},
		"qwerty123": {}, "abc123": {}, "111111": {}, "000000": {}, "123123": {},
		"iloveyou": {}, "admin": {}, "admin123": {}, "welcome": {}, "letmein": {},
		"monkey": {}, "dragon": {}, "sunshine": {}, "trainee": {}, "mentor": {},
	}

	passwordRuleTexts = map[string]string{
		pwdMinLenTag:   pwdMinLenText,
		pwdAttrSimTag:  pwdAttrSimText,
		pwdNoCommonTag: pwdNoCommonText,
	}
)

// InitValidators registers the user validation tags and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)

	validate.RegisterStructValidation(userStructValidation, NewUser{}, UpdateUser{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
	core.RegisterCustomTranslation(validate, translator, pwdNoCommonTag, pwdNoCommonText)
}

// Custom Validators

func roleValidation(fl validator.FieldLevel) bool {
	return HasAnyRole(fl.Field().String(), AllRoles...)
}

func statusValidation(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	return status == StatusActive || status == StatusInactive
}

// userStructValidation does struct level validation on NewUser and UpdateUser structs.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case NewUser:
		if usr.Password != "" { // "required" reports it otherwise
			validatePassword(usr.Password, usr.Username, usr.Email, sl)
		}
	case UpdateUser:
		if usr.Password != "" {
			validatePassword(usr.Password, usr.Username, usr.Email, sl)
		}
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 6
// - no common password
// - no username or email similarity
func validatePassword(pwd, uname, email string, sl validator.StructLevel) {
	if tag := checkPassword(pwd, uname, email); tag != "" {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}
}

// checkPassword returns the tag of the first failed password rule, or "".
func checkPassword(pwd, uname, email string) string {
	if len(pwd) < pwdMinLen {
		return pwdMinLenTag
	}

	lpwd := strings.ToLower(pwd)
	if _, ok := commonPasswords[lpwd]; ok {
		return pwdNoCommonTag
	}

	localPart := email
	if i := strings.Index(email, "@"); i > 0 {
		localPart = email[:i]
	}
	for _, attr := range []string{uname, localPart} {
		attr = strings.ToLower(attr)
		if attr == "" {
			continue
		}
		if len(attr) >= 3 && strings.Contains(lpwd, attr) {
			return pwdAttrSimTag
		}
		ratio := difflib.NewMatcher(strings.Split(lpwd, ""), strings.Split(attr, "")).QuickRatio()
		if ratio >= pwdMaxSim {
			return pwdAttrSimTag
		}
	}
	return ""
}
