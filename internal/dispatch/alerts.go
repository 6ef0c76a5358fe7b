// Package dispatch provisions per-shop SNS alert topics and publishes
// submission completion summaries to them.
package dispatch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/ordersheet/backend/internal/aws"
	"github.com/ordersheet/backend/internal/shopify"
)

func shortHashShop(shop string) string {
	h := sha1.Sum([]byte(shop))
	// 8 bytes -> 16 hex chars, stable and short
	return hex.EncodeToString(h[:8])
}

// EnsureShopAlerts ensures:
// - an SNS topic exists for the shop
// - an email subscription exists (the merchant confirms once)
// - the shop record stores AlertsTopicArn
//
// Returns topicArn.
func EnsureShopAlerts(ctx context.Context, shops *shopify.ShopStore, snsClient aws.SNSAPI, shop, email string) (string, error) {
	shop = strings.TrimSpace(shop)
	email = strings.TrimSpace(email)
	if shop == "" || email == "" {
		return "", nil
	}

	stage := strings.TrimSpace(os.Getenv("ALERTS_STAGE"))
	if stage == "" {
		stage = "dev"
	}

	// If already stored, reuse
	if item, err := shops.Get(ctx, shop); err == nil && item.AlertsTopicArn != "" {
		return item.AlertsTopicArn, nil
	}

	// SNS topic names must be simple (no slashes, etc.)
	topicName := fmt.Sprintf("ordersheet-shop-alerts-%s-%s", stage, shortHashShop(shop))

	ct, err := snsClient.CreateTopic(ctx, &sns.CreateTopicInput{
		Name: sdkaws.String(topicName),
	})
	if err != nil {
		return "", err
	}
	topicArn := sdkaws.ToString(ct.TopicArn)

	// Subscribe email (requires confirm link click once)
	_, err = snsClient.Subscribe(ctx, &sns.SubscribeInput{
		TopicArn: sdkaws.String(topicArn),
		Protocol: sdkaws.String("email"),
		Endpoint: sdkaws.String(email),
	})
	if err != nil {
		return "", err
	}

	if err := shops.SetAlertsTopic(ctx, shop, topicArn); err != nil {
		return "", err
	}

	return topicArn, nil
}

// PublishCompletion sends the submission summary to the shop's alert topic.
// A missing topic is not an error; alerts are opt-in.
func PublishCompletion(ctx context.Context, snsClient aws.SNSAPI, topicArn, shop, submissionID string, ordersCreated, rowsFailed int) error {
	if strings.TrimSpace(topicArn) == "" {
		return nil
	}

	subject := fmt.Sprintf("Ordersheet import finished for %s", shop)
	message := fmt.Sprintf(
		"Submission %s finished.\nOrders created: %d\nRows failed: %d\n",
		submissionID, ordersCreated, rowsFailed,
	)

	_, err := snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn: sdkaws.String(topicArn),
		Subject:  sdkaws.String(subject),
		Message:  sdkaws.String(message),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
