package mocks

import "github.com/stretchr/testify/mock"

type MailSender struct{ mock.Mock }

func (m *MailSender) SendVerificationEmail(to, token string) error {
	return m.Called(to, token).Error(0)
}

func (m *MailSender) SendPasswordResetEmail(to, token string) error {
	return m.Called(to, token).Error(0)
}
