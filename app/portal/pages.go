package portal

// Page is a static page of the portal.
type Page struct {
	Title    string    `json:"title"`
	Lead     string    `json:"lead"`
	Sections []Section `json:"sections,omitempty"`
	Stats    []Stat    `json:"stats,omitempty"`
	Channels []Channel `json:"channels,omitempty"`
	Subjects []Subject `json:"subjects,omitempty"`
}

// Section is a titled block of text.
type Section struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Stat is a figure shown on the about page.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Channel is a way to reach the newsroom.
type Channel struct {
	Name    string `json:"name"`
	Details string `json:"details"`
	Value   string `json:"value"`
}

var aboutPage = Page{
	Title: "Redefinindo o Jornalismo para a Era Digital",
	Lead: "No MediaGB, combinamos a integridade jornalística tradicional com tecnologia de ponta " +
		"para entregar notícias que importam, com a profundidade que você merece.",
	Stats: []Stat{
		{Label: "Leitores Mensais", Value: "2M+"},
		{Label: "Países Alcançados", Value: "150+"},
		{Label: "Prêmios de Jornalismo", Value: "24"},
		{Label: "Anos de História", Value: "15"},
	},
	Sections: []Section{
		{
			Title: "Jornalismo com Propósito",
			Text: "Fundado com a crença de que a informação livre é a base de uma sociedade democrática, " +
				"o MediaGB cresceu de um pequeno blog local para uma potência de mídia global.",
		},
		{Title: "Verdade Inegociável", Text: "Verificamos cada fato. Se não pudermos confirmar, não publicamos."},
		{Title: "Independência", Text: "Somos financiados pelos leitores, não por interesses corporativos ou políticos."},
		{Title: "Inovação", Text: "Usamos IA e dados para aprofundar histórias, não para substituí-las."},
	},
}

var contactPage = Page{
	Title: "Entre em Contato",
	Lead: "Tem uma história para contar, uma pergunta sobre nossa cobertura ou feedback? " +
		"Adoraríamos ouvir de você.",
	Channels: []Channel{
		{Name: "E-mail", Details: "Para dúvidas gerais e pautas", Value: "contato@mediagb.org"},
		{Name: "Telefone", Details: "Seg-Sex, 9h às 18h", Value: "+55 (11) 99999-9999"},
		{Name: "Redação", Details: "Av. Paulista, 1000, Bela Vista", Value: "São Paulo - SP, Brasil"},
	},
	Subjects: AllSubjects(),
}

// About returns the about page.
func (p *Portal) About() Page { return clonePage(aboutPage) }

// Contact returns the contact page.
func (p *Portal) Contact() Page { return clonePage(contactPage) }

func clonePage(p Page) Page {
	p.Sections = append([]Section(nil), p.Sections...)
	p.Stats = append([]Stat(nil), p.Stats...)
	p.Channels = append([]Channel(nil), p.Channels...)
	p.Subjects = append([]Subject(nil), p.Subjects...)
	return p
}
