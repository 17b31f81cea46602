package ingest

import "fmt"

var notices = map[InvalidReason]string{
	ReasonMissingProduct: "Ich konnte kein Produkt erkennen. Bitte schreibe dazu, was du anbietest, z.B. \"Tomaten 500g 2,49€\".",
	ReasonMissingPrice:   "Ich sehe keinen Preis in deiner Nachricht. Bitte sende das Angebot erneut mit Preis, z.B. \"Tomaten 500g 2,49€\".",
	ReasonMissingBoth:    "Ich konnte weder Produkt noch Preis erkennen. Bitte sende Produkt, Menge und Preis, z.B. \"Tomaten 500g 2,49€\".",
	ReasonUnclear:        "Ich habe deine Nachricht leider nicht verstanden. Bitte sende dein Angebot erneut mit Produkt, Menge und Preis, z.B. \"Tomaten 500g 2,49€\".",
}

const UnknownSenderNotice = "Diese Nummer ist keinem Markt zugeordnet. Bitte wende dich an den Support, um deinen Markt zu registrieren."

// Text sent back to the sender when the submission was rejected
func Notice(reason InvalidReason) string {
	if text, ok := notices[reason]; ok {
		return text
	}
	return notices[ReasonUnclear]
}

func ConfirmationNotice(offer *Structured) string {
	return fmt.Sprintf("Danke! Dein Angebot \"%s\" (%s, %s €) wurde als Entwurf gespeichert.", offer.ProductName, offer.Unit, offer.Price)
}
