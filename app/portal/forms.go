package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
)

// ErrInvalidForm is returned when the submitted form is not valid.
var ErrInvalidForm = errors.New("invalid form")

// Subject of the contact message.
type Subject string

// Subjects the reader can pick.
const (
	SubjectEditorial   Subject = "editorial"
	SubjectSupport     Subject = "support"
	SubjectAdvertising Subject = "advertising"
	SubjectOther       Subject = "other"
)

// AllSubjects returns all subjects of the contact form.
func AllSubjects() []Subject {
	return []Subject{SubjectEditorial, SubjectSupport, SubjectAdvertising, SubjectOther}
}

// ContactForm is the message sent from the contact page.
type ContactForm struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Subject Subject `json:"subject"`
	Message string  `json:"message"`
}

// Texts of the form acknowledgements.
const (
	ContactAck = "Mensagem Enviada! Obrigado por entrar em contato. " +
		"Nossa equipe analisará sua mensagem e responderá o mais breve possível."
	subscribeAck = "Obrigado! %s foi inscrito na nossa newsletter."
)

// SubmitContact accepts the contact message. Nothing is sent anywhere,
// the processing is simulated with a delay.
func (p *Portal) SubmitContact(ctx context.Context, form ContactForm) (string, error) {
	if err := form.validate(); err != nil {
		return "", err
	}

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("submit contact form: %w", ctx.Err())
	case <-time.After(p.params.ContactDelay):
	}

	p.log.InfoContext(ctx, "contact form submitted",
		slog.String("subject", string(form.Subject)),
		slog.String("email", form.Email))

	return ContactAck, nil
}

// Subscribe signs the address up for the newsletter.
func (p *Portal) Subscribe(ctx context.Context, email string) (string, error) {
	addr, err := parseEmail(email)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidForm, err)
	}

	p.log.InfoContext(ctx, "subscribed to newsletter", slog.String("email", addr))
	return fmt.Sprintf(subscribeAck, addr), nil
}

func (f ContactForm) validate() error {
	var errs []error
	if strings.TrimSpace(f.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if _, err := parseEmail(f.Email); err != nil {
		errs = append(errs, err)
	}
	switch f.Subject {
	case SubjectEditorial, SubjectSupport, SubjectAdvertising, SubjectOther:
	case "":
		errs = append(errs, errors.New("subject is required"))
	default:
		errs = append(errs, fmt.Errorf("unknown subject %q", f.Subject))
	}
	if strings.TrimSpace(f.Message) == "" {
		errs = append(errs, errors.New("message is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidForm, errors.Join(errs...))
	}
	return nil
}

// parseEmail accepts only a bare address, without a display name.
func parseEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("email is required")
	}

	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return "", fmt.Errorf("email %q is not valid", s)
	}
	return addr.Address, nil
}
