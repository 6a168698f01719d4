package strip

const (
	CmdShowFrame     = 0x20
	CmdSetBrightness = 0x21
	SOF0             = 0xAA
	SOF1             = 0x55
)

// Packet is one command for the strip controller MCU.
type Packet struct {
	Cmd     byte
	Payload []byte
}

// Encode builds the on-wire representation:
//
//	[SOF0][SOF1][LEN hi][LEN lo][CMD][payload...][CKS]
//
// LEN counts CMD and payload. CKS is the XOR of every byte from LEN hi on.
func (p Packet) Encode() []byte {
	length := len(p.Payload) + 1
	hi, lo := byte(length>>8), byte(length)

	cks := hi ^ lo ^ p.Cmd
	for _, b := range p.Payload {
		cks ^= b
	}

	out := make([]byte, 0, len(p.Payload)+6)
	out = append(out, SOF0, SOF1, hi, lo, p.Cmd)
	out = append(out, p.Payload...)
	out = append(out, cks)
	return out
}

// framePacket flattens f into RGB triplets.
func framePacket(f *Frame) Packet {
	payload := make([]byte, 0, len(f)*3)
	for _, c := range f {
		payload = append(payload, c.R, c.G, c.B)
	}
	return Packet{Cmd: CmdShowFrame, Payload: payload}
}
