package register

import (
	"strings"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
)

type Submission struct {
	ParticipantName string            `json:"participant_name" validate:"required,max=120"`
	DateOfBirth     string            `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Category        string            `json:"category" validate:"required,max=64"`
	GuardianName    string            `json:"guardian_name" validate:"required,max=120"`
	GuardianIDCode  string            `json:"guardian_id_code" validate:"required,len=12,number"`
	Phone           string            `json:"phone" validate:"required,len=10,number"`
	Email           string            `json:"email" validate:"omitempty,max=254,email"`
	Attributes      map[string]string `json:"attributes" validate:"omitempty,max=32,dive,keys,required,max=64,endkeys,max=500"`
}

func (s *Submission) normalize() {
	s.ParticipantName = strings.TrimSpace(s.ParticipantName)
	s.DateOfBirth = strings.TrimSpace(s.DateOfBirth)
	s.Category = strings.TrimSpace(s.Category)
	s.GuardianName = strings.TrimSpace(s.GuardianName)
	s.GuardianIDCode = strings.TrimSpace(s.GuardianIDCode)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Email = strings.TrimSpace(s.Email)

	if len(s.Attributes) == 0 {
		return
	}
	attrs := make(map[string]string, len(s.Attributes))
	for k, v := range s.Attributes {
		attrs[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	s.Attributes = attrs
}

func (s *Submission) registrant() models.Registrant {
	return models.Registrant{
		ParticipantName: s.ParticipantName,
		DateOfBirth:     s.DateOfBirth,
		Category:        s.Category,
		GuardianName:    s.GuardianName,
		GuardianIDCode:  s.GuardianIDCode,
		Phone:           s.Phone,
		Email:           s.Email,
		Attributes:      models.Attributes(s.Attributes),
	}
}
