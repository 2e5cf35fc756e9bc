package about

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/apperr"
	"storefront-service/internal/stores/postgres"
	"storefront-service/internal/stores/postgres/pgtest"
)

func TestParseLegalField(t *testing.T) {
	f, err := ParseLegalField("privacy-policy")
	require.NoError(t, err)
	assert.Equal(t, PrivacyPolicy, f)

	f, err = ParseLegalField("razorpay_compliance")
	require.NoError(t, err)
	assert.Equal(t, RazorpayCompliance, f)
	assert.Equal(t, "razorpay compliance", f.Title())

	_, err = ParseLegalField("cancellation-policy")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLegalValue(t *testing.T) {
	cookies := "we use cookies"
	l := Legal{TermsAndConditions: "terms", CookiePolicy: &cookies}

	assert.Equal(t, "terms", l.Value(TermsAndConditions))
	assert.Equal(t, "we use cookies", l.Value(CookiePolicy))
	assert.Empty(t, l.Value(PrivacyPolicy))
	assert.Empty(t, l.Value(Disclaimer))
}

func TestContent(t *testing.T) {
	db := pgtest.Open(t)
	gdb, err := postgres.OpenGorm(db)
	require.NoError(t, err)
	c, err := NewConf(gdb)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("nothing configured", func(t *testing.T) {
		_, err := c.BrandStory(ctx)
		assert.ErrorIs(t, err, ErrAboutNotFound)

		_, err = c.LegalText(ctx, ShippingPolicy)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.Contains(t, err.Error(), "Owner is too lazy to configure shipping policy")

		_, err = c.Socials(ctx)
		assert.ErrorIs(t, err, ErrSocialsNotFound)

		list, err := c.Testimonials(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("brand story with team", func(t *testing.T) {
		_, err := c.SaveAbout(ctx, About{
			Title: "Our story", Story: "first", Image: "https://cdn.example.com/a.png",
			TeamMembers: []TeamMember{{Name: "Ada", Position: "Founder", Image: "https://cdn.example.com/ada.png", Detail: "builds"}},
		})
		require.NoError(t, err)
		_, err = c.SaveAbout(ctx, About{
			Title: "Our story", Story: "second", Image: "https://cdn.example.com/a.png",
			TeamMembers: []TeamMember{
				{Name: "Ada", Position: "Founder", Image: "https://cdn.example.com/ada.png", Detail: "builds"},
				{Name: "Lin", Position: "Design", Image: "https://cdn.example.com/lin.png", Detail: "draws"},
			},
		})
		require.NoError(t, err)

		a, err := c.BrandStory(ctx)
		require.NoError(t, err)
		assert.Equal(t, "second", a.Story)
		require.Len(t, a.TeamMembers, 2)
		assert.Equal(t, "Lin", a.TeamMembers[1].Name)
	})

	t.Run("legal pages", func(t *testing.T) {
		_, err := c.SaveLegal(ctx, Legal{TermsAndConditions: "terms", PrivacyPolicy: "privacy"})
		require.NoError(t, err)
		shipping := "ships in two days"
		_, err = c.SaveLegal(ctx, Legal{TermsAndConditions: "terms v2", PrivacyPolicy: "privacy", ShippingPolicy: &shipping})
		require.NoError(t, err)

		text, err := c.LegalText(ctx, TermsAndConditions)
		require.NoError(t, err)
		assert.Equal(t, "terms v2", text)

		text, err = c.LegalText(ctx, ShippingPolicy)
		require.NoError(t, err)
		assert.Equal(t, shipping, text)

		_, err = c.LegalText(ctx, Disclaimer)
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		var rows int64
		require.NoError(t, gdb.Model(&Legal{}).Count(&rows).Error)
		assert.Equal(t, int64(1), rows)
	})

	t.Run("socials", func(t *testing.T) {
		yt := "https://youtube.com/@store"
		_, err := c.SaveSocials(ctx, NewSocials{InstagramUsername: "old", InstagramToken: "t1"})
		require.NoError(t, err)
		_, err = c.SaveSocials(ctx, NewSocials{InstagramUsername: "store", InstagramToken: "t2", Youtube: &yt})
		require.NoError(t, err)

		s, err := c.Socials(ctx)
		require.NoError(t, err)
		assert.Equal(t, "store", s.Instagram.Username)
		require.NotNil(t, s.Youtube)
		assert.Equal(t, yt, *s.Youtube)
	})

	t.Run("testimonials", func(t *testing.T) {
		_, err := c.CreateTestimonial(ctx, Testimonial{Name: "Sam", Position: "Buyer", Image: "https://cdn.example.com/s.png", Content: "great", Rating: 4})
		require.NoError(t, err)
		list, err := c.Testimonials(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, 4, list[0].Rating)
	})
}
