package rules

// clinicalVocabulary fixes common speech-to-text misspellings of medical terms
// and expands spoken abbreviations.
const clinicalVocabulary = `
# spoken abbreviations
b p => blood pressure
b.p. => blood pressure
h i v => HIV
t b => TB
e r => emergency room

# drug names
para cetamol => paracetamol
paris etamol => paracetamol
ibu profen => ibuprofen
amoxy cillin => amoxicillin
metformen => metformin
s/\bwar ?fa ?rin\b/warfarin/g

# symptoms and findings
s/\bdi(a|e)r?r?ho?ea\b/diarrhoea/g
s/\bnew ?monia\b/pneumonia/g
s/\bhyper ?tension\b/hypertension/g
s/\bdia ?bee?t(i|e)s\b/diabetes/g
s/\b(\d+) degrees? (celsius|c)\b/$1 °C/g
`
