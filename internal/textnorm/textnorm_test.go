package textnorm

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Habitación", "habitacion"},
		{"ÁÉÍÓÚ", "aeiou"},
		{"Mañana", "manana"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"number words", "Dos habitaciones para tres", "2 hab para 3"},
		{"una and diez", "una pieza por diez noches", "1 hab por 10 noches"},
		{"word boundary only", "unos dosis", "unos dosis"},
		{"matrimonial", "1 Matrimonial", "1 doble"},
		{"sencilla and simple", "una sencilla y dos simples", "1 single y 2 single"},
		{"estandar accented", "3 Estándar", "3 standard"},
		{"piezas", "4 piezas", "4 hab"},
		{"habitacion singular", "una habitación", "1 hab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Necesito DOS habitaciones matrimoniales para mañana, somos cuatro personas",
		"del 10 al 15, una pieza estándar y una sencilla",
		"Hola! quiero cotizar 2 dobles y 1 superior para el 10/12 al 15/12",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}
