package model

type Product struct {
	Name  string  `json:"nome"`
	Price float64 `json:"preco"`
}

type Supermarket struct {
	Name     string `json:"nome"`
	Location string `json:"localizacao"`
}

type OrderLine struct {
	Product  string `json:"nome"`
	Quantity int    `json:"quantidade"`
}

type Order struct {
	Supermarket string      `json:"supermercado"`
	Products    []OrderLine `json:"produtos"`
}
