// Package i18n holds the localized messages the API returns to the booking
// frontend. Keys are typed and the tables are checked for completeness at
// startup, so a missing translation is a deploy-time failure rather than a
// silent fallback at runtime.
package i18n

import "fmt"

type Lang string

const (
	LangEn Lang = "en"
	LangAr Lang = "ar"
	LangFr Lang = "fr"
)

var langs = []Lang{LangEn, LangAr, LangFr}

// ParseLang falls back to English for unknown codes.
func ParseLang(s string) Lang {
	switch Lang(s) {
	case LangAr:
		return LangAr
	case LangFr:
		return LangFr
	}
	return LangEn
}

// Dir returns the text direction for the language.
func (l Lang) Dir() string {
	if l == LangAr {
		return "rtl"
	}
	return "ltr"
}

type Key string

const (
	KeyBookingSuccess    Key = "booking.success"
	KeyBookingError      Key = "booking.error"
	KeyBookingConflict   Key = "booking.conflict"
	KeyBookingValidation Key = "booking.validation"
	KeyBookingPastDate   Key = "booking.past_date"
	KeyAuthInvalid       Key = "auth.invalid_credentials"
	KeyAuthLocked        Key = "auth.account_locked"
	KeyAuthUnauthorized  Key = "auth.unauthorized"
	KeyNotFound          Key = "common.not_found"
	KeyInternalError     Key = "common.internal_error"
)

var allKeys = []Key{
	KeyBookingSuccess,
	KeyBookingError,
	KeyBookingConflict,
	KeyBookingValidation,
	KeyBookingPastDate,
	KeyAuthInvalid,
	KeyAuthLocked,
	KeyAuthUnauthorized,
	KeyNotFound,
	KeyInternalError,
}

var tables = map[Lang]map[Key]string{
	LangEn: {
		KeyBookingSuccess:    "Your appointment request has been received. We will contact you to confirm.",
		KeyBookingError:      "We could not process your booking. Please try again.",
		KeyBookingConflict:   "That time was just taken. Please pick another slot.",
		KeyBookingValidation: "Please check the highlighted fields and try again.",
		KeyBookingPastDate:   "Please choose a date from today onwards.",
		KeyAuthInvalid:       "Invalid email or password.",
		KeyAuthLocked:        "Account is temporarily locked. Try again later.",
		KeyAuthUnauthorized:  "Please sign in to continue.",
		KeyNotFound:          "The requested resource was not found.",
		KeyInternalError:     "Something went wrong. Please try again.",
	},
	LangAr: {
		KeyBookingSuccess:    "تم استلام طلب الموعد الخاص بك. سنتواصل معك للتأكيد.",
		KeyBookingError:      "تعذر إتمام الحجز. يرجى المحاولة مرة أخرى.",
		KeyBookingConflict:   "تم حجز هذا الوقت للتو. يرجى اختيار وقت آخر.",
		KeyBookingValidation: "يرجى التحقق من الحقول المحددة والمحاولة مرة أخرى.",
		KeyBookingPastDate:   "يرجى اختيار تاريخ من اليوم فصاعدا.",
		KeyAuthInvalid:       "البريد الإلكتروني أو كلمة المرور غير صحيحة.",
		KeyAuthLocked:        "الحساب مقفل مؤقتا. حاول مرة أخرى لاحقا.",
		KeyAuthUnauthorized:  "يرجى تسجيل الدخول للمتابعة.",
		KeyNotFound:          "المورد المطلوب غير موجود.",
		KeyInternalError:     "حدث خطأ ما. يرجى المحاولة مرة أخرى.",
	},
	LangFr: {
		KeyBookingSuccess:    "Votre demande de rendez-vous a été reçue. Nous vous contacterons pour confirmer.",
		KeyBookingError:      "Impossible de traiter votre réservation. Veuillez réessayer.",
		KeyBookingConflict:   "Ce créneau vient d'être pris. Veuillez en choisir un autre.",
		KeyBookingValidation: "Veuillez vérifier les champs indiqués et réessayer.",
		KeyBookingPastDate:   "Veuillez choisir une date à partir d'aujourd'hui.",
		KeyAuthInvalid:       "E-mail ou mot de passe invalide.",
		KeyAuthLocked:        "Compte temporairement verrouillé. Réessayez plus tard.",
		KeyAuthUnauthorized:  "Veuillez vous connecter pour continuer.",
		KeyNotFound:          "La ressource demandée est introuvable.",
		KeyInternalError:     "Une erreur est survenue. Veuillez réessayer.",
	},
}

// T returns the message for the language, falling back to English.
func T(lang Lang, key Key) string {
	if msg, ok := tables[lang][key]; ok {
		return msg
	}
	return tables[LangEn][key]
}

// Validate fails when any language table is missing a key. Run at startup.
func Validate() error {
	for _, lang := range langs {
		table, ok := tables[lang]
		if !ok {
			return fmt.Errorf("i18n: no table for language %q", lang)
		}
		for _, key := range allKeys {
			if table[key] == "" {
				return fmt.Errorf("i18n: language %q is missing %q", lang, key)
			}
		}
	}
	return nil
}
