// services/notifier.go
package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/gomail.v2"

	"github.com/brahimcontact64-ctrl/E-vizza/config"
	"github.com/brahimcontact64-ctrl/E-vizza/models"
	"github.com/brahimcontact64-ctrl/E-vizza/workflow"
)

// Broadcaster pushes a live event to a connected user, implemented by
// the websocket hub.
type Broadcaster interface {
	BroadcastToUser(userID string, payload interface{})
}

// Notifier is the workflow subscriber that turns committed status
// changes into in-app notifications, FCM pushes, emails and websocket
// events. Every channel is best effort; failures are logged and the
// rest still go out.
type Notifier struct {
	db          *mongo.Client
	firebaseApp *firebase.App
	broadcaster Broadcaster
}

func NewNotifier(db *mongo.Client, firebaseApp *firebase.App, broadcaster Broadcaster) *Notifier {
	return &Notifier{db: db, firebaseApp: firebaseApp, broadcaster: broadcaster}
}

// HandleStatusChanged implements workflow.Subscriber.
func (n *Notifier) HandleStatusChanged(ctx context.Context, ev workflow.StatusChanged) {
	var user models.User
	err := config.GetCollection(n.db, "users").FindOne(ctx, bson.M{"_id": ev.UserID}).Decode(&user)
	if err != nil {
		log.Printf("notifier: failed to load user %s: %v", ev.UserID.Hex(), err)
		return
	}

	titleEn, titleFr, titleAr := statusTitles(ev)
	bodyEn := fmt.Sprintf("Your application %s is now %q.", ev.ApplicationNumber, statusName(ctx, n.db, ev, "en"))
	bodyFr := fmt.Sprintf("Votre demande %s est maintenant %q.", ev.ApplicationNumber, statusName(ctx, n.db, ev, "fr"))
	bodyAr := fmt.Sprintf("طلبك %s أصبح الآن %q.", ev.ApplicationNumber, statusName(ctx, n.db, ev, "ar"))

	if err := n.saveNotification(ctx, ev, titleEn, titleFr, titleAr, bodyEn, bodyFr, bodyAr); err != nil {
		log.Printf("notifier: failed to save notification for %s: %v", ev.ApplicationNumber, err)
	}

	if n.broadcaster != nil {
		n.broadcaster.BroadcastToUser(ev.UserID.Hex(), map[string]interface{}{
			"type":               "status_changed",
			"application_id":     ev.ApplicationID.Hex(),
			"application_number": ev.ApplicationNumber,
			"old_status":         ev.OldStatus,
			"new_status":         ev.NewStatus,
			"occurred_at":        ev.OccurredAt.Format(time.RFC3339),
		})
	}

	title, body := pickLocale(user.PreferredLanguage, titleEn, titleFr, titleAr, bodyEn, bodyFr, bodyAr)
	if user.FCMToken != "" {
		if err := n.sendPush(ctx, user.FCMToken, title, body, ev); err != nil {
			log.Printf("notifier: FCM push to %s failed: %v", ev.UserID.Hex(), err)
		}
	}
	if user.Email != "" {
		if err := n.sendEmail(user.Email, title, body); err != nil {
			log.Printf("notifier: email to %s failed: %v", user.Email, err)
		}
	}
}

func statusTitles(ev workflow.StatusChanged) (en, fr, ar string) {
	if ev.OldStatus == "" {
		return "Application received", "Demande reçue", "تم استلام الطلب"
	}
	return "Application status updated", "Statut de la demande mis à jour", "تم تحديث حالة الطلب"
}

// statusName resolves the localized display name of the new status
// from the visa type's flow, falling back to the raw code.
func statusName(ctx context.Context, db *mongo.Client, ev workflow.StatusChanged, lang string) string {
	var vt models.VisaType
	err := config.GetCollection(db, "visaTypes").FindOne(ctx, bson.M{"_id": ev.VisaTypeID}).Decode(&vt)
	if err != nil {
		return ev.NewStatus
	}
	for _, step := range vt.StatusFlow {
		if step.Status != ev.NewStatus {
			continue
		}
		switch lang {
		case "fr":
			if step.NameFr != "" {
				return step.NameFr
			}
		case "ar":
			if step.NameAr != "" {
				return step.NameAr
			}
		}
		if step.NameEn != "" {
			return step.NameEn
		}
	}
	return ev.NewStatus
}

func pickLocale(lang, titleEn, titleFr, titleAr, bodyEn, bodyFr, bodyAr string) (string, string) {
	switch lang {
	case "fr":
		return titleFr, bodyFr
	case "ar":
		return titleAr, bodyAr
	default:
		return titleEn, bodyEn
	}
}

func (n *Notifier) saveNotification(ctx context.Context, ev workflow.StatusChanged, titleEn, titleFr, titleAr, bodyEn, bodyFr, bodyAr string) error {
	appID := ev.ApplicationID
	notification := models.Notification{
		ID:                   primitive.NewObjectID(),
		UserID:               ev.UserID,
		TitleEn:              titleEn,
		TitleFr:              titleFr,
		TitleAr:              titleAr,
		MessageEn:            bodyEn,
		MessageFr:            bodyFr,
		MessageAr:            bodyAr,
		Type:                 "status_changed",
		RelatedApplicationID: &appID,
		IsRead:               false,
		CreatedAt:            ev.OccurredAt,
	}
	_, err := config.GetCollection(n.db, "notifications").InsertOne(ctx, notification)
	return err
}

func (n *Notifier) sendPush(ctx context.Context, token, title, body string, ev workflow.StatusChanged) error {
	if n.firebaseApp == nil {
		return fmt.Errorf("firebase app not configured")
	}
	client, err := n.firebaseApp.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("getting messaging client: %w", err)
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"type":              "status_changed",
			"applicationId":     ev.ApplicationID.Hex(),
			"applicationNumber": ev.ApplicationNumber,
			"newStatus":         ev.NewStatus,
			"timestamp":         ev.OccurredAt.Format(time.RFC3339),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "evizza_status_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  body,
					},
					Sound: "default",
				},
			},
		},
	}

	response, err := client.Send(ctx, msg)
	if err != nil {
		return err
	}
	log.Printf("FCM notification sent for %s: %s", ev.ApplicationNumber, response)
	return nil
}

func (n *Notifier) sendEmail(to, subject, body string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	if smtpHost == "" {
		return fmt.Errorf("SMTP_HOST not configured")
	}
	smtpPort := 587
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	return d.DialAndSend(m)
}
