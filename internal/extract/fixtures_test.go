package extract

// Page texts shaped like real gazettes: a single-notice gazette with its
// contents on page two, a contents list of several Government Notices, and a
// list that opens with an R-numbered regulation.

var singlePages = []string{
	"Government Gazette Staatskoerant REPUBLIEKVANSUIDAFRIKA Vol: 719 23 2025 No: 52724 Mei ISSN 1682-5845 May",
	"2 No, 52724 IMPORTANT NOTICE: BE HELD RESPONSIBLE FOR ANY ERRORS. Contents Gazette Page No. No. No. " +
		"GENERAL NOTICES ALGEMENE KENNISGEWINGS Sports, Arts and Culture, Department of / Sport, Kuns en Kultuur, Departement van " +
		"3228 Draft National Policy on Heritage Memorialisation: Publication of notice to request public comment _ 52724 3",
	"general notices algemene kennisgewings department of sports, arts and culture Draft National Policy Framework",
}

var multiPages = []string{
	"Government Gazette Vol. 719 23 2025 No. 52730 May ISSN 1682-5845",
	"Contents\nGOVERNMENT NOTICES\n" +
		"6123 Road Accident Fund Act (56/1996): Adjustment of statutory limit ........ 52730 3\n" +
		"6124 Skills Development Act, No. 97 of 1998: Call for comment\n" +
		"on sector plans ........ 52730 5\n" +
		"6125 National Heritage Resources Act (25/1999): Declaration ........ 52730 7\n",
}

var regulationPages = []string{
	"Government Gazette Vol. 719 30 2025 No. 52731 May",
	"Contents\nGOVERNMENT NOTICES\n" +
		"R. 6130 Mineral Resources Act (28/2002): Amendment regulations ........ 52731 3\n" +
		"6131 Water Services Act (108/1997): Tariffs ........ 52731 9\n",
}

var noMastheadPages = []string{
	"Some scanned page without a masthead\n6123 Entry ........ 52730 3",
}
