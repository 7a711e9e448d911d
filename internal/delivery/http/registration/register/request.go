package register

import (
	"github.com/tumbleweedd/two_services_system/registration_service/internal/services/registration/register"
)

type RegistrationRequest struct {
	ParticipantName string            `json:"participant_name"`
	DateOfBirth     string            `json:"date_of_birth"`
	Category        string            `json:"category"`
	GuardianName    string            `json:"guardian_name"`
	GuardianIDCode  string            `json:"guardian_id_code"`
	Phone           string            `json:"phone"`
	Email           string            `json:"email"`
	Attributes      map[string]string `json:"attributes"`
}

func (req *RegistrationRequest) toDTO() register.Submission {
	return register.Submission{
		ParticipantName: req.ParticipantName,
		DateOfBirth:     req.DateOfBirth,
		Category:        req.Category,
		GuardianName:    req.GuardianName,
		GuardianIDCode:  req.GuardianIDCode,
		Phone:           req.Phone,
		Email:           req.Email,
		Attributes:      req.Attributes,
	}
}
