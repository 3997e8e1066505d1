package api

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var supportedLanguages = []language.Tag{language.English, language.Russian, language.Uzbek}

var matcher = language.NewMatcher(supportedLanguages)

// messages holds en, ru and uz texts per error key, in supportedLanguages order.
var messages = map[string][3]string{
	"USER_NOT_FOUND": {
		"User not found",
		"Пользователь не найден",
		"Foydalanuvchi topilmadi",
	},
	"USERNAME_ALREADY_EXISTS": {
		"Username already exists",
		"Имя пользователя уже существует",
		"Bunday foydalanuvchi nomi mavjud",
	},
	"USER_PASSWORD_LENGTH_INVALID": {
		"Password must be between 8 and 16 characters",
		"Пароль должен содержать от 8 до 16 символов",
		"Parol 8 dan 16 gacha belgidan iborat bo'lishi kerak",
	},
	"USER_PHONE_LENGTH_INVALID": {
		"Phone number is invalid",
		"Неверный номер телефона",
		"Telefon raqami noto'g'ri",
	},
	"USER_EMAIL_ALREADY_EXISTS": {
		"Email already exists",
		"Электронная почта уже используется",
		"Bunday elektron pochta mavjud",
	},
	"USER_PHONE_ALREADY_EXISTS": {
		"Phone number already exists",
		"Номер телефона уже используется",
		"Bunday telefon raqami mavjud",
	},
	"DECEASED_NOT_FOUND": {
		"Deceased record not found",
		"Запись об умершем не найдена",
		"Marhum haqidagi yozuv topilmadi",
	},
	"FILE_NOT_FOUND": {
		"File not found",
		"Файл не найден",
		"Fayl topilmadi",
	},
	"DECEASED_PERSONAL_ID_ALREADY_EXISTS": {
		"Personal ID already exists",
		"Персональный идентификатор уже существует",
		"Bunday shaxsiy raqam mavjud",
	},
	"DECEASED_PERSONAL_ID_SIZE_INVALID": {
		"Personal ID must consist of exactly 14 digits",
		"Персональный идентификатор должен состоять ровно из 14 цифр",
		"Shaxsiy raqam aniq 14 ta raqamdan iborat bo'lishi kerak",
	},
	"DECEASED_FILE_NOT_FOUND": {
		"Deceased file link not found",
		"Связь файла с умершим не найдена",
		"Marhum fayli topilmadi",
	},
	"BAD_CREDENTIALS": {
		"Invalid username or password",
		"Неверное имя пользователя или пароль",
		"Foydalanuvchi nomi yoki parol noto'g'ri",
	},
	"VALIDATION_FAILED": {
		"Request validation failed",
		"Ошибка проверки запроса",
		"So'rov tekshiruvdan o'tmadi",
	},
	"FILE_ALREADY_EXISTS": {
		"File token already exists",
		"Токен файла уже существует",
		"Fayl tokeni allaqachon mavjud",
	},
	"AUTHENTICATION_REQUIRED": {
		"Authentication required",
		"Требуется аутентификация",
		"Autentifikatsiya talab qilinadi",
	},
	"ACCESS_DENIED": {
		"Access denied",
		"Доступ запрещён",
		"Ruxsat berilmagan",
	},
	"INTERNAL_ERROR": {
		"Internal server error",
		"Внутренняя ошибка сервера",
		"Serverning ichki xatosi",
	},
}

var messageCatalog = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, texts := range messages {
		for i, tag := range supportedLanguages {
			if err := b.SetString(tag, key, texts[i]); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// MatchLanguage picks the best supported language for an Accept-Language value.
func MatchLanguage(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return language.English
	}
	return supportedLanguages[idx]
}

// Localize returns the message for key in the request's language; unknown
// keys are returned unchanged.
func Localize(r *http.Request, key string) string {
	tag := MatchLanguage(r.Header.Get("Accept-Language"))
	return message.NewPrinter(tag, message.Catalog(messageCatalog)).Sprintf(key)
}
