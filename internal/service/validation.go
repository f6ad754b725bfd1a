package service

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/noah-isme/sma-portal-api/internal/models"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
)

// struct-level validation tags
const (
	tagPaidRequiresDate    = "paid_requires_date"
	tagDueAfterBorrowed    = "due_after_borrowed"
	tagReturnAfterBorrowed = "return_after_borrowed"
	tagAvailableLTETotal   = "available_lte_total"
	tagNonNegative         = "non_negative"
	tagMaxAmount           = "max_amount"
	tagDecimalPlaces       = "decimal_places"
)

var customMessages = map[string]string{
	tagPaidRequiresDate:    "payment date is required when status is PAID",
	tagDueAfterBorrowed:    "due date cannot be before the borrowed date",
	tagReturnAfterBorrowed: "return date cannot be before the borrowed date",
	tagAvailableLTETotal:   "available copies cannot exceed total copies",
	tagNonNegative:         "{0} cannot be negative",
	tagMaxAmount:           "amount cannot exceed 99999999.99",
	tagDecimalPlaces:       "amount cannot have more than 2 decimal places",
}

var (
	translatorOnce sync.Once
	translator     ut.Translator
)

func englishTranslator() ut.Translator {
	translatorOnce.Do(func() {
		english := en.New()
		translator, _ = ut.New(english, english).GetTranslator("en")
	})
	return translator
}

// NewValidator builds a validator that reports JSON field names, speaks English and
// knows the cross-field rules of fee records, lending records and books.
func NewValidator() *validator.Validate {
	validate := validator.New()
	trans := englishTranslator()
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterStructValidation(feeRecordRules, models.FeeRecord{})
	validate.RegisterStructValidation(libraryRecordRules, models.LibraryRecord{})
	validate.RegisterStructValidation(bookRules, models.Book{})

	// The default translations are already registered, so the register step is a no-op.
	noop := func(ut.Translator) error { return nil }
	for tag, message := range customMessages {
		message := message
		_ = validate.RegisterTranslation(tag, trans, noop, func(_ ut.Translator, fe validator.FieldError) string {
			return strings.ReplaceAll(message, "{0}", fe.Field())
		})
	}
	return validate
}

func feeRecordRules(sl validator.StructLevel) {
	record := sl.Current().Interface().(models.FeeRecord)
	if record.Status == models.FeePaid && (record.PaymentDate == nil || record.PaymentDate.IsZero()) {
		sl.ReportError(record.PaymentDate, "payment_date", "PaymentDate", tagPaidRequiresDate, "")
	}
	if record.DueDate.IsZero() {
		sl.ReportError(record.DueDate, "due_date", "DueDate", "required", "")
	}
	switch {
	case record.Amount.IsNegative():
		sl.ReportError(record.Amount, "amount", "Amount", tagNonNegative, "")
	case record.Amount.GreaterThan(models.MaxFeeAmount):
		sl.ReportError(record.Amount, "amount", "Amount", tagMaxAmount, "")
	case !record.Amount.Equal(record.Amount.Round(2)):
		sl.ReportError(record.Amount, "amount", "Amount", tagDecimalPlaces, "")
	}
}

func libraryRecordRules(sl validator.StructLevel) {
	record := sl.Current().Interface().(models.LibraryRecord)
	if record.BorrowedDate.IsZero() {
		sl.ReportError(record.BorrowedDate, "borrowed_date", "BorrowedDate", "required", "")
	}
	if record.DueDate.IsZero() {
		sl.ReportError(record.DueDate, "due_date", "DueDate", "required", "")
		return
	}
	if !record.BorrowedDate.IsZero() && record.DueDate.Before(record.BorrowedDate) {
		sl.ReportError(record.DueDate, "due_date", "DueDate", tagDueAfterBorrowed, "")
	}
	if record.Returned() && record.ReturnDate.Before(record.BorrowedDate) {
		sl.ReportError(record.ReturnDate, "return_date", "ReturnDate", tagReturnAfterBorrowed, "")
	}
}

func bookRules(sl validator.StructLevel) {
	book := sl.Current().Interface().(models.Book)
	if book.AvailableCopies > book.TotalCopies {
		sl.ReportError(book.AvailableCopies, "available_copies", "AvailableCopies", tagAvailableLTETotal, "")
	}
}

// validationError converts validator output into a field-keyed validation error.
func validationError(err error, message string) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	trans := englishTranslator()
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = fe.Translate(trans)
	}
	appErr := appErrors.Validation(message, fields)
	appErr.Err = err
	return appErr
}

// fieldErrors collects hand-written field checks before a single validation error is returned.
type fieldErrors map[string]string

func (f fieldErrors) add(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

func (f fieldErrors) merge(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Code == appErrors.ErrValidation.Code && len(appErr.Fields) > 0 {
		for field, message := range appErr.Fields {
			f.add(field, message)
		}
		return nil
	}
	return err
}

func (f fieldErrors) err(message string) error {
	if len(f) == 0 {
		return nil
	}
	return appErrors.Validation(message, f)
}

// check runs tag validation on payload and folds field errors into errs.
func check(validate *validator.Validate, errs fieldErrors, payload interface{}) error {
	if err := validate.Struct(payload); err != nil {
		return errs.merge(validationError(err, ""))
	}
	return nil
}

// formFieldNames maps record columns onto the keys grade-scoped forms submit.
var formFieldNames = map[string]string{"grade_id": "grade", "student_id": "student", "book_id": "book"}

// checkForm is check for records edited through grade-scoped forms.
func checkForm(validate *validator.Validate, errs fieldErrors, record interface{}) error {
	collected := fieldErrors{}
	if err := check(validate, collected, record); err != nil {
		return err
	}
	for field, message := range collected {
		if key, ok := formFieldNames[field]; ok {
			field = key
		}
		errs.add(field, message)
	}
	return nil
}
