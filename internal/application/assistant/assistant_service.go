// Package assistant answers dashboard chat commands with fixed rules.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RoleAssistant is the role of every reply
const RoleAssistant = "assistant"

// Action types
const (
	ActionNavigate = "navigate"
	ActionToast    = "toast"
)

// Fallback is the reply when no intent matches
const Fallback = "Maaf, saya tidak mengerti perintah tersebut. Coba 'Buat berita baru' atau 'Cek status sistem'."

// ErrEmptyMessage is returned for a blank message
var ErrEmptyMessage = shared.ErrInvalidInput.WithMessage("Pesan tidak boleh kosong")

// Action tells the dashboard what to do with a reply
type Action struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

// Reply is one assistant message
type Reply struct {
	Role    string  `json:"role"`
	Content string  `json:"content"`
	Action  *Action `json:"action"`
}

// ChatInput is the body of a chat request
type ChatInput struct {
	Message string `json:"message" binding:"required"`
}

// SchoolCounter counts organizations of a type
type SchoolCounter interface {
	CountByType(ctx context.Context, t organization.Type) (int64, error)
}

type intent struct {
	keywords []string
	reply    func(ctx context.Context) Reply
}

// Service matches messages against intents in a fixed order
type Service struct {
	schools SchoolCounter
	logger  *zap.Logger
	lower   cases.Caser
	intents []intent
}

// NewService creates the assistant. schools may be nil, in which case the
// school count reads as zero.
func NewService(schools SchoolCounter, logger *zap.Logger) *Service {
	s := &Service{
		schools: schools,
		logger:  logger,
		lower:   cases.Lower(language.Indonesian),
	}
	s.intents = []intent{
		{
			keywords: []string{"buat berita", "tulis berita", "post baru"},
			reply:    navigate("Baik, saya akan membuka formulir pembuatan berita baru untuk Anda.", "/admin/kecamatan/posts"),
		},
		{
			keywords: []string{"tambah user", "user baru", "akun baru"},
			reply:    navigate("Siap, membuka halaman manajemen user.", "/admin/kecamatan/users"),
		},
		{
			keywords: []string{"mitra baru", "tambah mitra"},
			reply:    navigate("Membuka formulir pendaftaran mitra baru.", "/admin/kecamatan/mitra"),
		},
		{
			keywords: []string{"pengaturan", "setting", "profil"},
			reply:    navigate("Membuka pengaturan kecamatan.", "/admin/kecamatan/settings"),
		},
		{
			keywords: []string{"status", "kesehatan sistem", "online"},
			reply: func(context.Context) Reply {
				return Reply{
					Role:    RoleAssistant,
					Content: "Sistem saat ini terpantau **ONLINE** dan stabil. Semua layanan berjalan normal.",
					Action:  &Action{Type: ActionToast, Payload: "System Status: ONLINE"},
				}
			},
		},
		{
			keywords: []string{"jumlah sekolah", "data sekolah"},
			reply:    s.schoolCount,
		},
		{
			keywords: []string{"halo", "hi", "bantu"},
			reply: func(context.Context) Reply {
				return Reply{
					Role:    RoleAssistant,
					Content: "Halo! Saya adalah asisten pintar Datadik Cilebar. Saya bisa membantu Anda menavigasi menu atau mengecek status sistem. Coba ketik 'Buat berita baru'.",
				}
			},
		},
	}
	return s
}

// Reply answers message with the first matching intent
func (s *Service) Reply(ctx context.Context, message string) (*Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	msg := s.lower.String(message)
	for _, in := range s.intents {
		for _, kw := range in.keywords {
			if strings.Contains(msg, kw) {
				r := in.reply(ctx)
				return &r, nil
			}
		}
	}
	return &Reply{Role: RoleAssistant, Content: Fallback}, nil
}

func (s *Service) schoolCount(ctx context.Context) Reply {
	var count int64
	if s.schools != nil {
		n, err := s.schools.CountByType(ctx, organization.TypeSchool)
		if err != nil {
			s.logger.Warn("Failed to count schools for assistant", zap.Error(err))
		} else {
			count = n
		}
	}
	return Reply{
		Role:    RoleAssistant,
		Content: fmt.Sprintf("Saat ini terdapat **%d sekolah** yang terdaftar di sistem. Anda bisa melihat detailnya di menu Sekolah.", count),
		Action:  &Action{Type: ActionNavigate, Payload: "/admin/kecamatan/schools"},
	}
}

func navigate(content, path string) func(context.Context) Reply {
	return func(context.Context) Reply {
		return Reply{
			Role:    RoleAssistant,
			Content: content,
			Action:  &Action{Type: ActionNavigate, Payload: path},
		}
	}
}
