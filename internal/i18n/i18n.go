// Package i18n holds the static translation tables for all user-facing
// strings, keyed by language code.
package i18n

// Lang is a supported language code.
type Lang string

const (
	LangEN Lang = "en"
	LangHE Lang = "he"

	// DefaultLang is used when a language code is missing or unknown.
	DefaultLang = LangEN
)

// Parse returns the Lang for a code, falling back to DefaultLang for
// anything unrecognized.
func Parse(code string) Lang {
	switch Lang(code) {
	case LangEN, LangHE:
		return Lang(code)
	default:
		return DefaultLang
	}
}

// Toggle flips between the two supported languages.
func (l Lang) Toggle() Lang {
	if l == LangEN {
		return LangHE
	}
	return LangEN
}

// RTL reports whether the language is rendered right-to-left.
func (l Lang) RTL() bool {
	return l == LangHE
}

// Table holds every displayed label for one language.
type Table struct {
	Temperature             string
	Weather                 string
	Humidity                string
	Wind                    string
	GustsUpTo               string
	Kmh                     string
	BlowingFrom             string
	Percent                 string
	Celsius                 string
	ToggleLanguage          string
	Forecast                string
	ToggleSize              string
	FindLocation            string
	LocationDenied          string
	LocationUnavailable     string
	LocationUnknown         string
	LocationTimeout         string
	LocationError           string
	GeolocationNotSupported string
	UsingIPLocation         string
	SearchPlaceholder       string
	TempRange               string
	UpdateAvailable         string
}

var tables = map[Lang]Table{
	LangEN: {
		Temperature:             "Temperature",
		Weather:                 "Weather",
		Humidity:                "Humidity",
		Wind:                    "Wind",
		GustsUpTo:               "gusts up to",
		Kmh:                     "km/h",
		BlowingFrom:             "blowing from",
		Percent:                 "%",
		Celsius:                 "°C",
		ToggleLanguage:          "עברית",
		Forecast:                "Next 5 hours",
		ToggleSize:              "Toggle size",
		FindLocation:            "📍 Find My Location",
		LocationDenied:          "Location access was denied. Please enable location services and try again.",
		LocationUnavailable:     "Location information is unavailable. Please try again.",
		LocationUnknown:         "Unable to determine your location. Please try again in a few moments or move to an area with better GPS signal.",
		LocationTimeout:         "Location request timed out. Please try again.",
		LocationError:           "An unknown error occurred while getting your location. Please try again.",
		GeolocationNotSupported: "Geolocation is not supported by your browser.",
		UsingIPLocation:         "Using approximate location based on your IP address. For more accurate results, please enable location services.",
		SearchPlaceholder:       "Search for a city...",
		TempRange:               "Temperature",
		UpdateAvailable:         "A new version is available. Refreshing...",
	},
	LangHE: {
		Temperature:             "טמפרטורה",
		Weather:                 "מזג אוויר",
		Humidity:                "לחות",
		Wind:                    "רוח",
		GustsUpTo:               "משבים עד",
		Kmh:                     "קמ\"ש",
		BlowingFrom:             "נושבת מ",
		Percent:                 "%",
		Celsius:                 "°C",
		ToggleLanguage:          "English",
		Forecast:                "5 השעות הבאות",
		ToggleSize:              "שינוי גודל",
		FindLocation:            "📍 מצא מיקום נוכחי",
		LocationDenied:          "הגישה למיקום נדחתה. אנא הפעל את שירותי המיקום ונסה שוב.",
		LocationUnavailable:     "מידע על המיקום אינו זמין. אנא נסה שוב.",
		LocationUnknown:         "לא ניתן לקבוע את המיקום שלך. אנא נסה שוב בעוד מספר רגעים או עבור לאזור עם אות GPS טוב יותר.",
		LocationTimeout:         "בקשת המיקום פגה. אנא נסה שוב.",
		LocationError:           "אירעה שגיאה לא ידועה בעת קבלת המיקום. אנא נסה שוב.",
		GeolocationNotSupported: "הדפדפן שלך אינו תומך במיקום גיאוגרפי.",
		UsingIPLocation:         "משתמש במיקום משוער בהתבסס על כתובת ה-IP שלך. לתוצאות מדויקות יותר, אנא הפעל את שירותי המיקום.",
		SearchPlaceholder:       "חפש עיר...",
		TempRange:               "טווח טמפרטורה",
		UpdateAvailable:         "גרסה חדשה זמינה. מרענן...",
	},
}

// T returns the translation table for a language, falling back to the
// default language for unknown codes.
func T(l Lang) Table {
	if t, ok := tables[l]; ok {
		return t
	}
	return tables[DefaultLang]
}
