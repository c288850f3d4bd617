// Package taxid validates Spanish national tax identifiers.
//
// Three formats are supported:
//
//   - CIF: company tax code, one organisation-type letter, seven digits and
//     a control character that is a digit or a letter depending on the
//     organisation type.
//   - DNI: resident natural person, eight digits and a control letter.
//   - NIE: foreign resident, X/Y/Z prefix, seven digits and a control letter.
//
// Every function is total over arbitrary strings: malformed input, wrong
// identifier class and checksum mismatch all report false. Input is
// normalized first (whitespace and hyphens removed, uppercased), so
// "a-5881850-1" and "A58818501" are the same identifier.
package taxid
