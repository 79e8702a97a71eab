package encoding

import "regexp"

// entityPattern matches a named entity reference. Numeric character
// references are already understood by the XML parser and are not touched.
var entityPattern = regexp.MustCompile(`&([a-zA-Z][a-zA-Z0-9]*);`)

// xmlBuiltins are the five entity names every XML parser understands.
// They stay escaped so the expanded fragment remains well-formed.
var xmlBuiltins = map[string]bool{
	"amp":  true,
	"lt":   true,
	"gt":   true,
	"quot": true,
	"apos": true,
}

// ExpandEntities replaces HTML named entities with their literal
// characters so a strict XML parser accepts the fragment. The five XML
// builtins are kept as-is, and unrecognized names pass through untouched
// (they may already be valid in the storage format).
func ExpandEntities(s string) string {
	return entityPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := ref[1 : len(ref)-1]
		if xmlBuiltins[name] {
			return ref
		}
		if r, ok := namedEntities[name]; ok {
			return string(r)
		}
		return ref
	})
}

// namedEntities maps HTML 4 entity names to their code points. The XML
// builtins are deliberately absent; see xmlBuiltins.
var namedEntities = map[string]rune{
	// Latin-1 supplement
	"nbsp":   '\u00a0',
	"iexcl":  '¡',
	"cent":   '¢',
	"pound":  '£',
	"curren": '¤',
	"yen":    '¥',
	"brvbar": '¦',
	"sect":   '§',
	"uml":    '¨',
	"copy":   '©',
	"ordf":   'ª',
	"laquo":  '«',
	"not":    '¬',
	"shy":    '\u00ad',
	"reg":    '®',
	"macr":   '¯',
	"deg":    '°',
	"plusmn": '±',
	"sup2":   '²',
	"sup3":   '³',
	"acute":  '´',
	"micro":  'µ',
	"para":   '¶',
	"middot": '·',
	"cedil":  '¸',
	"sup1":   '¹',
	"ordm":   'º',
	"raquo":  '»',
	"frac14": '¼',
	"frac12": '½',
	"frac34": '¾',
	"iquest": '¿',
	"Agrave": 'À',
	"Aacute": 'Á',
	"Acirc":  'Â',
	"Atilde": 'Ã',
	"Auml":   'Ä',
	"Aring":  'Å',
	"AElig":  'Æ',
	"Ccedil": 'Ç',
	"Egrave": 'È',
	"Eacute": 'É',
	"Ecirc":  'Ê',
	"Euml":   'Ë',
	"Igrave": 'Ì',
	"Iacute": 'Í',
	"Icirc":  'Î',
	"Iuml":   'Ï',
	"ETH":    'Ð',
	"Ntilde": 'Ñ',
	"Ograve": 'Ò',
	"Oacute": 'Ó',
	"Ocirc":  'Ô',
	"Otilde": 'Õ',
	"Ouml":   'Ö',
	"times":  '×',
	"Oslash": 'Ø',
	"Ugrave": 'Ù',
	"Uacute": 'Ú',
	"Ucirc":  'Û',
	"Uuml":   'Ü',
	"Yacute": 'Ý',
	"THORN":  'Þ',
	"szlig":  'ß',
	"agrave": 'à',
	"aacute": 'á',
	"acirc":  'â',
	"atilde": 'ã',
	"auml":   'ä',
	"aring":  'å',
	"aelig":  'æ',
	"ccedil": 'ç',
	"egrave": 'è',
	"eacute": 'é',
	"ecirc":  'ê',
	"euml":   'ë',
	"igrave": 'ì',
	"iacute": 'í',
	"icirc":  'î',
	"iuml":   'ï',
	"eth":    'ð',
	"ntilde": 'ñ',
	"ograve": 'ò',
	"oacute": 'ó',
	"ocirc":  'ô',
	"otilde": 'õ',
	"ouml":   'ö',
	"divide": '÷',
	"oslash": 'ø',
	"ugrave": 'ù',
	"uacute": 'ú',
	"ucirc":  'û',
	"uuml":   'ü',
	"yacute": 'ý',
	"thorn":  'þ',
	"yuml":   'ÿ',

	// Latin extended and spacing modifiers
	"OElig":  'Œ',
	"oelig":  'œ',
	"Scaron": 'Š',
	"scaron": 'š',
	"Yuml":   'Ÿ',
	"fnof":   'ƒ',
	"circ":   'ˆ',
	"tilde":  '˜',

	// General punctuation
	"ensp":   '\u2002',
	"emsp":   '\u2003',
	"thinsp": '\u2009',
	"zwnj":   '\u200c',
	"zwj":    '\u200d',
	"lrm":    '\u200e',
	"rlm":    '\u200f',
	"ndash":  '–',
	"mdash":  '—',
	"lsquo":  '‘',
	"rsquo":  '’',
	"sbquo":  '‚',
	"ldquo":  '“',
	"rdquo":  '”',
	"bdquo":  '„',
	"dagger": '†',
	"Dagger": '‡',
	"bull":   '•',
	"hellip": '…',
	"permil": '‰',
	"prime":  '′',
	"Prime":  '″',
	"lsaquo": '‹',
	"rsaquo": '›',
	"oline":  '‾',
	"frasl":  '⁄',
	"euro":   '€',

	// Letterlike symbols and arrows
	"image":   'ℑ',
	"weierp":  '℘',
	"real":    'ℜ',
	"trade":   '™',
	"alefsym": 'ℵ',
	"larr":    '←',
	"uarr":    '↑',
	"rarr":    '→',
	"darr":    '↓',
	"harr":    '↔',
	"crarr":   '↵',
	"lArr":    '⇐',
	"uArr":    '⇑',
	"rArr":    '⇒',
	"dArr":    '⇓',
	"hArr":    '⇔',

	// Mathematical operators
	"forall": '∀',
	"part":   '∂',
	"exist":  '∃',
	"empty":  '∅',
	"nabla":  '∇',
	"isin":   '∈',
	"notin":  '∉',
	"ni":     '∋',
	"prod":   '∏',
	"sum":    '∑',
	"minus":  '−',
	"lowast": '∗',
	"radic":  '√',
	"prop":   '∝',
	"infin":  '∞',
	"ang":    '∠',
	"and":    '∧',
	"or":     '∨',
	"cap":    '∩',
	"cup":    '∪',
	"int":    '∫',
	"there4": '∴',
	"sim":    '∼',
	"cong":   '≅',
	"asymp":  '≈',
	"ne":     '≠',
	"equiv":  '≡',
	"le":     '≤',
	"ge":     '≥',
	"sub":    '⊂',
	"sup":    '⊃',
	"nsub":   '⊄',
	"sube":   '⊆',
	"supe":   '⊇',
	"oplus":  '⊕',
	"otimes": '⊗',
	"perp":   '⊥',
	"sdot":   '⋅',

	// Technical and geometric symbols
	"lceil":  '⌈',
	"rceil":  '⌉',
	"lfloor": '⌊',
	"rfloor": '⌋',
	"lang":   '〈',
	"rang":   '〉',
	"loz":    '◊',
	"spades": '♠',
	"clubs":  '♣',
	"hearts": '♥',
	"diams":  '♦',

	// Greek
	"Alpha":    'Α',
	"Beta":     'Β',
	"Gamma":    'Γ',
	"Delta":    'Δ',
	"Epsilon":  'Ε',
	"Zeta":     'Ζ',
	"Eta":      'Η',
	"Theta":    'Θ',
	"Iota":     'Ι',
	"Kappa":    'Κ',
	"Lambda":   'Λ',
	"Mu":       'Μ',
	"Nu":       'Ν',
	"Xi":       'Ξ',
	"Omicron":  'Ο',
	"Pi":       'Π',
	"Rho":      'Ρ',
	"Sigma":    'Σ',
	"Tau":      'Τ',
	"Upsilon":  'Υ',
	"Phi":      'Φ',
	"Chi":      'Χ',
	"Psi":      'Ψ',
	"Omega":    'Ω',
	"alpha":    'α',
	"beta":     'β',
	"gamma":    'γ',
	"delta":    'δ',
	"epsilon":  'ε',
	"zeta":     'ζ',
	"eta":      'η',
	"theta":    'θ',
	"iota":     'ι',
	"kappa":    'κ',
	"lambda":   'λ',
	"mu":       'μ',
	"nu":       'ν',
	"xi":       'ξ',
	"omicron":  'ο',
	"pi":       'π',
	"rho":      'ρ',
	"sigmaf":   'ς',
	"sigma":    'σ',
	"tau":      'τ',
	"upsilon":  'υ',
	"phi":      'φ',
	"chi":      'χ',
	"psi":      'ψ',
	"omega":    'ω',
	"thetasym": 'ϑ',
	"upsih":    'ϒ',
	"piv":      'ϖ',
}
