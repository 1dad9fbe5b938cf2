package notify

import (
	"net/url"
	"strings"
	"testing"

	"nordenzelt/internal/core"
)

func decodeText(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	return u.Query().Get("text")
}

func TestReminderLink(t *testing.T) {
	b := NewLinkBuilder("5491132747900")
	ev := core.Event{
		Date:        core.NewDate(2025, 6, 15),
		Address:     "Av. Libertador 1200",
		EventTime:   "18:00",
		ManagerName: "Marta",
		VenueName:   "Salón Norte",
		AgreedPrice: core.Money{Cents: 5000000},
	}

	link := b.ReminderLink(ev)
	if !strings.HasPrefix(link, "https://wa.me/5491132747900?text=") {
		t.Fatalf("unexpected link prefix: %s", link)
	}

	text := decodeText(t, link)
	for _, want := range []string{
		"*RECORDATORIO NORDEN ZELT (2 SEMANAS)*",
		"El evento de *Marta* en *Salón Norte* es en 2 semanas.",
		"- Fecha: 2025-06-15",
		"- Hora: 18:00",
		"- Precio: $50.000",
		"- Recordatorio: N/A",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("message missing %q:\n%s", want, text)
		}
	}
}

func TestReminderLinkKeepsCustomReminder(t *testing.T) {
	b := NewLinkBuilder("549")
	ev := core.Event{Date: core.NewDate(2025, 1, 1), Reminder: "Llevar estacas extra"}
	if text := decodeText(t, b.ReminderLink(ev)); !strings.Contains(text, "- Recordatorio: Llevar estacas extra") {
		t.Fatalf("custom reminder dropped:\n%s", text)
	}
}

func TestQuoteLink(t *testing.T) {
	b := NewLinkBuilder("5491132747900")
	link := b.QuoteLink(QuoteRequest{
		Name:       "Juan Pérez",
		Email:      "juan@example.com",
		Phone:      "1144556677",
		Location:   "Pilar",
		DateTime:   "2025-11-20 20:00",
		Duration:   "6",
		Guests:     "120",
		Ambience:   "Sí",
		SoundTech:  "No",
		Furniture:  "Sí",
		DanceFloor: "Sí",
	})

	text := decodeText(t, link)
	for _, want := range []string{
		"Me gustaría recibir un presupuesto",
		"- Nombre: Juan Pérez",
		"- Duración: 6 hs",
		"- Pista de Baile: Sí",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("message missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Comentarios") {
		t.Fatal("empty comments should be omitted")
	}
}

func TestQuoteLinkIncludesComments(t *testing.T) {
	b := NewLinkBuilder("549")
	text := decodeText(t, b.QuoteLink(QuoteRequest{Comments: "Acceso en pendiente"}))
	if !strings.Contains(text, "- Comentarios: Acceso en pendiente") {
		t.Fatalf("comments missing:\n%s", text)
	}
}
