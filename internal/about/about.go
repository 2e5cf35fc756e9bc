package about

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"storefront-service/internal/apperr"
)

var (
	ErrAboutNotFound   = fmt.Errorf("%w: About info not available", apperr.ErrNotFound)
	ErrSocialsNotFound = fmt.Errorf("%w: Social media links not available", apperr.ErrNotFound)
	ErrUnknownField    = fmt.Errorf("%w: unknown legal page", apperr.ErrNotFound)
)

type LegalField string

const (
	TermsAndConditions LegalField = "terms_and_conditions"
	PrivacyPolicy      LegalField = "privacy_policy"
	ReturnPolicy       LegalField = "return_policy"
	Disclaimer         LegalField = "disclaimer"
	ShippingPolicy     LegalField = "shipping_policy"
	PaymentPolicy      LegalField = "payment_policy"
	CookiePolicy       LegalField = "cookie_policy"
	RazorpayCompliance LegalField = "razorpay_compliance"
)

// ParseLegalField accepts both "privacy-policy" and "privacy_policy".
func ParseLegalField(s string) (LegalField, error) {
	f := LegalField(strings.ReplaceAll(strings.ToLower(s), "-", "_"))
	switch f {
	case TermsAndConditions, PrivacyPolicy, ReturnPolicy, Disclaimer,
		ShippingPolicy, PaymentPolicy, CookiePolicy, RazorpayCompliance:
		return f, nil
	}
	return "", ErrUnknownField
}

// Title is the field name in words, e.g. "privacy policy".
func (f LegalField) Title() string {
	return strings.ReplaceAll(string(f), "_", " ")
}

// Value returns the text of one legal page, empty when it is not configured.
func (l Legal) Value(f LegalField) string {
	var v *string
	switch f {
	case TermsAndConditions:
		return l.TermsAndConditions
	case PrivacyPolicy:
		return l.PrivacyPolicy
	case ReturnPolicy:
		v = l.ReturnPolicy
	case Disclaimer:
		v = l.Disclaimer
	case ShippingPolicy:
		v = l.ShippingPolicy
	case PaymentPolicy:
		v = l.PaymentPolicy
	case CookiePolicy:
		v = l.CookiePolicy
	case RazorpayCompliance:
		v = l.RazorpayCompliance
	}
	if v == nil {
		return ""
	}
	return *v
}

type Conf struct {
	db *gorm.DB
}

func NewConf(db *gorm.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

func (c *Conf) BrandStory(ctx context.Context) (About, error) {
	var a About
	err := c.db.WithContext(ctx).
		Preload("TeamMembers", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("id").First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return About{}, ErrAboutNotFound
	}
	if err != nil {
		return About{}, fmt.Errorf("failed to get about info: %w", err)
	}
	return a, nil
}

// SaveAbout replaces the brand story and its team.
func (c *Conf) SaveAbout(ctx context.Context, a About) (About, error) {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current About
		err := tx.Order("id").First(&current).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return err
		default:
			if err := tx.Delete(&current).Error; err != nil {
				return err
			}
		}
		a.ID = 0
		for i := range a.TeamMembers {
			a.TeamMembers[i].ID = 0
		}
		return tx.Create(&a).Error
	})
	if err != nil {
		return About{}, fmt.Errorf("failed to save about info: %w", err)
	}
	return a, nil
}

// LegalText returns one configured legal page.
func (c *Conf) LegalText(ctx context.Context, f LegalField) (string, error) {
	var l Legal
	err := c.db.WithContext(ctx).Order("id").First(&l).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to get %s: %w", f.Title(), err)
	}
	text := l.Value(f)
	if text == "" {
		return "", fmt.Errorf("%w: Owner is too lazy to configure %s", apperr.ErrNotFound, f.Title())
	}
	return text, nil
}

// SaveLegal stores the legal pages, updating the existing row when there is one.
func (c *Conf) SaveLegal(ctx context.Context, l Legal) (Legal, error) {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Legal
		err := tx.Order("id").First(&current).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			l.ID = 0
		case err != nil:
			return err
		default:
			l.ID = current.ID
			l.CreatedAt = current.CreatedAt
		}
		return tx.Save(&l).Error
	})
	if err != nil {
		return Legal{}, fmt.Errorf("failed to save legal pages: %w", err)
	}
	return l, nil
}

func (c *Conf) Testimonials(ctx context.Context) ([]Testimonial, error) {
	list := []Testimonial{}
	if err := c.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list testimonials: %w", err)
	}
	return list, nil
}

func (c *Conf) CreateTestimonial(ctx context.Context, t Testimonial) (Testimonial, error) {
	t.ID = 0
	if err := c.db.WithContext(ctx).Create(&t).Error; err != nil {
		return Testimonial{}, fmt.Errorf("failed to create testimonial: %w", err)
	}
	return t, nil
}

func (c *Conf) Socials(ctx context.Context) (Socials, error) {
	var s Socials
	err := c.db.WithContext(ctx).Preload("Instagram").Order("id").First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Socials{}, ErrSocialsNotFound
	}
	if err != nil {
		return Socials{}, fmt.Errorf("failed to get social links: %w", err)
	}
	return s, nil
}

// SaveSocials replaces the social links together with their instagram account.
func (c *Conf) SaveSocials(ctx context.Context, in NewSocials) (Socials, error) {
	s := Socials{
		Instagram: Instagram{
			Username: in.InstagramUsername,
			UserRef:  in.InstagramUserID,
			Token:    in.InstagramToken,
		},
		Twitter:   in.Twitter,
		Linkedin:  in.Linkedin,
		Youtube:   in.Youtube,
		Pinterest: in.Pinterest,
		Whatsapp:  in.Whatsapp,
		Facebook:  in.Facebook,
	}
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// socials cascade from their instagram row
		if err := tx.Where("1 = 1").Delete(&Instagram{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&s.Instagram).Error; err != nil {
			return err
		}
		s.InstagramID = s.Instagram.ID
		return tx.Omit("Instagram").Create(&s).Error
	})
	if err != nil {
		return Socials{}, fmt.Errorf("failed to save social links: %w", err)
	}
	return s, nil
}
