package about

import "time"

type About struct {
	ID          int64        `gorm:"primaryKey" json:"-"`
	Title       string       `gorm:"not null" json:"title" validate:"required,max=100"`
	Story       string       `gorm:"not null" json:"story" validate:"required"`
	Image       string       `gorm:"not null" json:"image" validate:"required,url"`
	TeamMembers []TeamMember `gorm:"foreignKey:AboutID" json:"team_members" validate:"dive"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (a *About) TableName() string {
	return "abouts"
}

type TeamMember struct {
	ID        int64     `gorm:"primaryKey" json:"-"`
	AboutID   int64     `gorm:"not null" json:"-"`
	Name      string    `gorm:"not null" json:"name" validate:"required,max=100"`
	Position  string    `gorm:"not null" json:"position" validate:"required,max=100"`
	Image     string    `gorm:"not null" json:"image" validate:"required,url"`
	Detail    string    `gorm:"not null" json:"detail" validate:"required"`
	Instagram *string   `json:"instagram" validate:"omitempty,url"`
	Linkedin  *string   `json:"linkedin" validate:"omitempty,url"`
	Twitter   *string   `json:"twitter" validate:"omitempty,url"`
	Email     *string   `json:"email" validate:"omitempty,email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *TeamMember) TableName() string {
	return "team_members"
}

type Legal struct {
	ID                 int64     `gorm:"primaryKey" json:"-"`
	TermsAndConditions string    `gorm:"not null" json:"terms_and_conditions" validate:"required"`
	PrivacyPolicy      string    `gorm:"not null" json:"privacy_policy" validate:"required"`
	ReturnPolicy       *string   `json:"return_policy"`
	Disclaimer         *string   `json:"disclaimer"`
	ShippingPolicy     *string   `json:"shipping_policy"`
	PaymentPolicy      *string   `json:"payment_policy"`
	CookiePolicy       *string   `json:"cookie_policy"`
	RazorpayCompliance *string   `json:"razorpay_compliance"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (l *Legal) TableName() string {
	return "legals"
}

type Testimonial struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name" validate:"required,max=100"`
	Position  string    `gorm:"not null" json:"position" validate:"required,max=100"`
	Image     string    `gorm:"not null" json:"image" validate:"required,url"`
	Content   string    `gorm:"not null" json:"content" validate:"required"`
	Rating    int       `gorm:"not null;default:5" json:"rating" validate:"required,min=1,max=5"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Testimonial) TableName() string {
	return "testimonials"
}

// Instagram holds the account used to render the storefront's instagram feed.
// The access token never leaves the service.
type Instagram struct {
	ID        int64     `gorm:"primaryKey" json:"-"`
	Username  string    `gorm:"not null" json:"username" validate:"required,max=100"`
	UserRef   string    `gorm:"column:user_ref;not null" json:"user_id"`
	Token     string    `gorm:"not null" json:"-"`
	NextPage  string    `gorm:"not null" json:"next_page"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Instagram) TableName() string {
	return "instagrams"
}

type Socials struct {
	ID          int64     `gorm:"primaryKey" json:"-"`
	InstagramID int64     `gorm:"not null;uniqueIndex" json:"-"`
	Instagram   Instagram `gorm:"foreignKey:InstagramID" json:"instagram"`
	Twitter     *string   `json:"twitter" validate:"omitempty,url"`
	Linkedin    *string   `json:"linkedin" validate:"omitempty,url"`
	Youtube     *string   `json:"youtube" validate:"omitempty,url"`
	Pinterest   *string   `json:"pinterest" validate:"omitempty,url"`
	Whatsapp    *string   `json:"whatsapp" validate:"omitempty,url"`
	Facebook    *string   `json:"facebook" validate:"omitempty,url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *Socials) TableName() string {
	return "socials"
}

// NewSocials is the admin payload for social links; the instagram token is write only.
type NewSocials struct {
	InstagramUsername string  `json:"instagram_username" validate:"required,max=100"`
	InstagramUserID   string  `json:"instagram_user_id" validate:"max=100"`
	InstagramToken    string  `json:"instagram_token" validate:"required,max=255"`
	Twitter           *string `json:"twitter" validate:"omitempty,url"`
	Linkedin          *string `json:"linkedin" validate:"omitempty,url"`
	Youtube           *string `json:"youtube" validate:"omitempty,url"`
	Pinterest         *string `json:"pinterest" validate:"omitempty,url"`
	Whatsapp          *string `json:"whatsapp" validate:"omitempty,url"`
	Facebook          *string `json:"facebook" validate:"omitempty,url"`
}
