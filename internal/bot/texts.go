package bot

import (
	"fmt"
	"strings"

	"github.com/SsToRR/HourlyBot/internal/domain"
)

// Command keywords, matched case-insensitively against the whole message.
const (
	cmdSubscribe   = "start"
	cmdUnsubscribe = "stop"
)

const (
	subscribePromptText = "Hi! I don't recognize you as a subscribed user.\n\n" +
		"Send 'start' to subscribe to my check-in questions!"
	notSubscribedText = "You are not subscribed to my check-in questions.\n\n" +
		"Send 'start' to subscribe."
	genericAckText = "Thanks for the message! I'll start asking about your activity " +
		"at the scheduled times. Send 'stop' to unsubscribe."
	couldNotSaveText = "Sorry, I could not save your answer. Please try again."
)

func welcomeText(name string, slots []domain.Slot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Welcome, %s! 🎉\n\n", name)
	b.WriteString("I'm your check-in bot. I will ask what you are doing at:\n")
	for _, s := range slots {
		b.WriteString("• ")
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	b.WriteString("\nJust reply to my questions when they arrive! 📝\n\n" +
		"Send 'stop' to unsubscribe.")
	return b.String()
}

func alreadySubscribedText(name string) string {
	return fmt.Sprintf("Welcome back, %s! You are already subscribed to my check-in questions. 📋\n\n"+
		"Send 'stop' to unsubscribe.", name)
}

func resubscribedText(name string) string {
	return fmt.Sprintf("Welcome back, %s! You are subscribed to my check-in questions again. 📋\n\n"+
		"Send 'stop' to unsubscribe.", name)
}

func goodbyeText(name string) string {
	return fmt.Sprintf("Goodbye, %s! 👋\n\n"+
		"You are unsubscribed from my check-in questions.\n\n"+
		"Send 'start' to subscribe again.", name)
}

func recordedText(slot domain.Slot, text string) string {
	return fmt.Sprintf("✅ Recorded your answer for %s:\n%q\n\nThanks!", slot, text)
}

func updatedText(slot domain.Slot, text string) string {
	return fmt.Sprintf("✅ Updated your answer for %s:\n%q\n\nThanks!", slot, text)
}

func digestHeaderText(name string) string {
	return fmt.Sprintf("📊 Daily report for %s\n\n", name)
}
