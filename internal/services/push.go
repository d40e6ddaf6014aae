package services

import (
	"context"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/avoronova/fieldpulse-api/internal/database"
	"github.com/avoronova/fieldpulse-api/internal/models"
)

// PushService carries report-flow notices to registered devices over
// Firebase Cloud Messaging. Sends are fire-and-forget: a missing client, a
// user without a device token, or an FCM failure never surfaces to the
// request that triggered the notice.
type PushService struct {
	client *messaging.Client
}

var Push = &PushService{}

// InitPush wires the Firebase messaging client. Without a service account
// the service stays up as a no-op, so local setups run with in-app
// notifications only.
func InitPush(serviceAccountPath string) error {
	if serviceAccountPath == "" {
		log.Println("push: no FCM service account, notices stay in-app only")
		return nil
	}

	ctx := context.Background()
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		log.Printf("push: firebase init failed, notices stay in-app only: %v", err)
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.Printf("push: messaging client failed, notices stay in-app only: %v", err)
		return nil
	}

	Push.client = client
	log.Println("push: FCM delivery enabled")
	return nil
}

// ReportSent tells a teamlead an agent's daily report is ready to review.
func (p *PushService) ReportSent(leadID uuid.UUID, agentName, date string) {
	go p.send(leadID, "Новый отчёт", agentName+" отправил отчёт за "+date, map[string]string{
		"type": "report_sent",
		"date": date,
	})
}

// SummarySaved tells a manager a team published its rollup for the day.
func (p *PushService) SummarySaved(managerID uuid.UUID, owner, date string) {
	go p.send(managerID, "Свод команды", owner+" сохранил объединённый отчёт за "+date, map[string]string{
		"type":  "summary_saved",
		"owner": owner,
		"date":  date,
	})
}

func (p *PushService) send(userID uuid.UUID, title, body string, data map[string]string) {
	if p.client == nil {
		return
	}

	var token string
	database.DB.Model(&models.User{}).Select("fcm_token").Where("id = ?", userID).Scan(&token)
	if token == "" {
		return
	}

	msg := &messaging.Message{
		Token: token,
		Data:  data,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	}
	if _, err := p.client.Send(context.Background(), msg); err != nil {
		log.Printf("push: delivery to %s failed: %v", userID, err)
	}
}
