package history

import "encoding/json"

// The JSON decode/encode helpers below exist only so this module's tests
// have fixtures in the wire shape spec.md §6.2 describes; full frontend
// parsing (error reporting, streaming, schema evolution) is explicitly out
// of the core's scope (spec.md §1). encoding/json is used directly rather
// than a third-party decoder — see DESIGN.md's "Stdlib justifications".

type jsonEvent struct {
	Write *jsonWriteEvent `json:"Write,omitempty"`
	Read  *jsonReadEvent  `json:"Read,omitempty"`
}

type jsonWriteEvent struct {
	Variable uint64 `json:"variable"`
	Version  uint64 `json:"version"`
}

type jsonReadEvent struct {
	Variable uint64  `json:"variable"`
	Version  *uint64 `json:"version"`
}

type jsonTransaction struct {
	Events    []jsonEvent `json:"events"`
	Committed bool        `json:"committed"`
}

// DecodeJSON parses a raw history encoded per spec.md §6.2: a JSON array
// of sessions, each an array of transactions.
func DecodeJSON(data []byte) (History, error) {
	var sessions [][]jsonTransaction
	if err := json.Unmarshal(data, &sessions); err != nil {
		return History{}, err
	}

	h := History{Sessions: make([]Session, len(sessions))}
	for si, txs := range sessions {
		session := Session{Transactions: make([]Transaction, len(txs))}
		for ti, jtx := range txs {
			tx := Transaction{Committed: jtx.Committed}
			for _, je := range jtx.Events {
				switch {
				case je.Write != nil:
					tx.Events = append(tx.Events, Write(Variable(je.Write.Variable), Version(je.Write.Version)))
				case je.Read != nil:
					v := NoVersion
					if je.Read.Version != nil {
						v = Version(*je.Read.Version)
					}
					tx.Events = append(tx.Events, Read(Variable(je.Read.Variable), v))
				}
			}
			session.Transactions[ti] = tx
		}
		h.Sessions[si] = session
	}
	return h, nil
}

// EncodeJSON renders h in the same wire shape DecodeJSON accepts.
func EncodeJSON(h History) ([]byte, error) {
	sessions := make([][]jsonTransaction, len(h.Sessions))
	for si, sess := range h.Sessions {
		txs := make([]jsonTransaction, len(sess.Transactions))
		for ti, tx := range sess.Transactions {
			jtx := jsonTransaction{Committed: tx.Committed}
			for _, ev := range tx.Events {
				switch ev.Kind {
				case WriteEvent:
					jtx.Events = append(jtx.Events, jsonEvent{Write: &jsonWriteEvent{
						Variable: uint64(ev.Variable), Version: uint64(ev.Version),
					}})
				case ReadEvent:
					re := &jsonReadEvent{Variable: uint64(ev.Variable)}
					if ev.Version != NoVersion {
						v := uint64(ev.Version)
						re.Version = &v
					}
					jtx.Events = append(jtx.Events, jsonEvent{Read: re})
				}
			}
			txs[ti] = jtx
		}
		sessions[si] = txs
	}
	return json.Marshal(sessions)
}
