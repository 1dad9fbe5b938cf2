// Package notify builds WhatsApp deep links. Nothing is sent from the
// server; links open a prefilled chat in the recipient's client.
package notify

import (
	"fmt"
	"net/url"
	"strings"

	"nordenzelt/internal/core"
)

// QuoteRequest carries the public quote form fields into the prefilled
// message.
type QuoteRequest struct {
	Name       string
	Email      string
	Phone      string
	Location   string
	DateTime   string
	Duration   string
	Guests     string
	Ambience   string
	SoundTech  string
	Furniture  string
	DanceFloor string
	Comments   string
}

// LinkBuilder generates wa.me links for a fixed destination number.
type LinkBuilder struct {
	phone string
}

func NewLinkBuilder(phone string) *LinkBuilder {
	return &LinkBuilder{phone: phone}
}

// ReminderLink builds the two-week reminder message for an event.
func (b *LinkBuilder) ReminderLink(ev core.Event) string {
	reminder := ev.Reminder
	if reminder == "" {
		reminder = "N/A"
	}

	var msg strings.Builder
	msg.WriteString("*RECORDATORIO NORDEN ZELT (2 SEMANAS)*\n\n")
	fmt.Fprintf(&msg, "El evento de *%s* en *%s* es en 2 semanas.\n\n", ev.ManagerName, ev.VenueName)
	msg.WriteString("*Detalles:*\n")
	fmt.Fprintf(&msg, "- Fecha: %s\n", ev.Date)
	fmt.Fprintf(&msg, "- Hora: %s\n", ev.EventTime)
	fmt.Fprintf(&msg, "- Lugar: %s\n", ev.Address)
	fmt.Fprintf(&msg, "- Precio: %s\n", ev.AgreedPrice.Format())
	fmt.Fprintf(&msg, "- Recordatorio: %s\n\n", reminder)
	msg.WriteString("¡A preparar todo! 😃")

	return b.link(msg.String())
}

// QuoteLink builds the prefilled quote request sent by the public form.
func (b *LinkBuilder) QuoteLink(q QuoteRequest) string {
	var msg strings.Builder
	msg.WriteString("¡Hola! Me gustaría recibir un presupuesto para el alquiler de una carpa Norden Zelt 😃\n\n")
	msg.WriteString("*Datos del Pedido:*\n")
	fmt.Fprintf(&msg, "- Nombre: %s\n", q.Name)
	fmt.Fprintf(&msg, "- Email: %s\n", q.Email)
	fmt.Fprintf(&msg, "- Teléfono: %s\n", q.Phone)
	fmt.Fprintf(&msg, "- Ubicación del Evento: %s\n", q.Location)
	fmt.Fprintf(&msg, "- Fecha y Hora: %s\n", q.DateTime)
	fmt.Fprintf(&msg, "- Duración: %s hs\n", q.Duration)
	fmt.Fprintf(&msg, "- Invitados: %s\n", q.Guests)
	fmt.Fprintf(&msg, "- Ambientación: %s\n", q.Ambience)
	fmt.Fprintf(&msg, "- Técnica y Sonido: %s\n", q.SoundTech)
	fmt.Fprintf(&msg, "- Mobiliario: %s\n", q.Furniture)
	fmt.Fprintf(&msg, "- Pista de Baile: %s\n", q.DanceFloor)
	if q.Comments != "" {
		fmt.Fprintf(&msg, "- Comentarios: %s\n", q.Comments)
	}

	return b.link(msg.String())
}

func (b *LinkBuilder) link(message string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", b.phone, url.QueryEscape(message))
}
