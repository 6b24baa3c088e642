package proto

// Function selectors, frame bytes 2-3.
type Func uint16

const (
	FuncScopeSetting  Func = 0x0000
	FuncScopeCapture  Func = 0x0100
	FuncAWGSetting    Func = 0x0002
	FuncScreenSetting Func = 0x0003
)

// Scope setting opcodes. Channel-addressed opcodes repeat with a stride of
// 6 per channel (channel 1 at the base, channel 2 at base+6).
const (
	opScopeEnable    byte = 0x00
	opScopeCoupling  byte = 0x01
	opScopeProbe     byte = 0x02
	opScopeBWLimit   byte = 0x03
	opScopeScale     byte = 0x04
	opScopeOffset    byte = 0x05
	channelOpStride  byte = 0x06
	opScopeStartStop byte = 0x0c

	opScopeTimeScale  byte = 0x0e
	opScopeTimeOffset byte = 0x0f

	opScopeTriggerSource byte = 0x10
	opScopeTriggerSlope  byte = 0x11
	opScopeTriggerMode   byte = 0x12
	opScopeAutoSet       byte = 0x13
	opScopeTriggerLevel  byte = 0x14
	opScopeStatus        byte = 0x15

	// Capture function only; no facade operation drives it.
	opScopeStartRecv byte = 0x16
)

// AWG opcodes.
const (
	opAWGType       byte = 0x00
	opAWGFrequency  byte = 0x01
	opAWGAmplitude  byte = 0x02
	opAWGOffset     byte = 0x03
	opAWGSquareDuty byte = 0x04
	opAWGRampDuty   byte = 0x05
	opAWGTrapDuty   byte = 0x06
	opAWGStartStop  byte = 0x08
)
