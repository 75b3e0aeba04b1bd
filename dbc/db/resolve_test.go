package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dbcgo/dbc/parse"
)

func loadDemo(t *testing.T) *Database {
	t.Helper()
	f, err := parse.ParseFile("testdata/demo.dbc")
	require.NoError(t, err)

	d, err := Resolve(f)
	require.NoError(t, err)
	return d
}

func mustFailResolve(t *testing.T, src string, substr string) {
	t.Helper()
	f, err := parse.ParseString(src)
	require.NoError(t, err)

	d, err := Resolve(f)
	require.Nil(t, d)
	require.Error(t, err)

	rerr, ok := err.(*ResolutionError)
	require.True(t, ok, "want *ResolutionError, got %T: %v", err, err)
	require.Contains(t, rerr.Error(), substr)
}

func TestResolve_Demo(t *testing.T) {
	d := loadDemo(t)

	require.Equal(t, "demo 0.2", d.Version())
	require.Len(t, d.Nodes(), 3)
	require.Len(t, d.Messages(), 3)

	cmd, ok := d.MessageByID(123)
	require.True(t, ok)
	require.Equal(t, "Command", cmd.Name())
	require.EqualValues(t, 3, cmd.Length())
	require.Len(t, cmd.Signals(), 3)

	byName, ok := d.MessageByName("Command")
	require.True(t, ok)
	require.Same(t, cmd, byName)

	ctrl, ok := d.NodeByName("Ctrl")
	require.True(t, ok)
	require.Same(t, ctrl, cmd.Transmitter())

	_, ok = d.MessageByID(999)
	require.False(t, ok)
	_, ok = d.MessageByName("Ghost")
	require.False(t, ok)
}

func TestResolve_SentinelReceiver(t *testing.T) {
	d := loadDemo(t)

	status, ok := d.MessageByID(321)
	require.True(t, ok)

	enabled, ok := status.SignalByName("enabled")
	require.True(t, ok)
	require.Empty(t, enabled.Receivers())

	fault, ok := status.SignalByName("fault")
	require.True(t, ok)
	require.Len(t, fault.Receivers(), 1)
	require.Equal(t, "Ctrl", fault.Receivers()[0].Name())
}

func TestResolve_SentinelTransmitter(t *testing.T) {
	f, err := parse.ParseString("BU_: A\nBO_ 263 Batt107: 4 Vector__XXX\n")
	require.NoError(t, err)

	d, err := Resolve(f)
	require.NoError(t, err)

	m, ok := d.MessageByID(263)
	require.True(t, ok)
	require.Nil(t, m.Transmitter())
}

func TestResolve_CommentAttachment(t *testing.T) {
	d := loadDemo(t)

	slaveA, ok := d.NodeByName("SlaveA")
	require.True(t, ok)
	require.Equal(t, "Slave node, index = 0", slaveA.Comment())

	cmd, _ := d.MessageByID(123)
	require.Equal(t, "Command from controller to slaves", cmd.Comment())

	status, _ := d.MessageByID(321)
	temp, ok := status.SignalByName("temp")
	require.True(t, ok)
	require.Equal(t, "Board temperature\nmeasured at the sensor", temp.Comment())
}

func TestResolve_ValueTableAttachment(t *testing.T) {
	d := loadDemo(t)

	resp, ok := d.MessageByID(131)
	require.True(t, ok)
	command, ok := resp.SignalByName("command")
	require.True(t, ok)

	label, ok := command.Label(2)
	require.True(t, ok)
	require.Equal(t, "light_off", label)

	raw, ok := command.RawByLabel("light_on")
	require.True(t, ok)
	require.EqualValues(t, 1, raw)

	require.Equal(t, []int64{0, 1, 2}, command.Labels())

	_, ok = command.Label(9)
	require.False(t, ok)

	// The same signal name in another message stays untouched.
	cmd, _ := d.MessageByID(123)
	other, _ := cmd.SignalByName("command")
	_, ok = other.Label(2)
	require.False(t, ok)
}

func TestResolve_NodeBackLinks(t *testing.T) {
	d := loadDemo(t)

	ctrl, _ := d.NodeByName("Ctrl")
	require.Len(t, ctrl.Transmits(), 1)
	require.Equal(t, "Command", ctrl.Transmits()[0].Name())

	var names []string
	for _, s := range ctrl.Receives() {
		names = append(names, s.Message().Name()+"."+s.Name())
	}
	require.ElementsMatch(t, []string{"Status_A.fault", "Status_A.temp", "Response_B.command", "Response_B.status"}, names)

	slaveA, _ := d.NodeByName("SlaveA")
	require.Equal(t, "Status_A", slaveA.Transmits()[0].Name())
}

func TestResolve_DuplicateMessageID(t *testing.T) {
	mustFailResolve(t,
		"BU_: A\nBO_ 9 First: 1 A\nBO_ 9 Second: 1 A\n",
		"identifier already used by message First")
}

func TestResolve_DuplicateSignalName(t *testing.T) {
	mustFailResolve(t,
		"BU_: A\n"+
			"BO_ 9 M: 2 A\n"+
			" SG_ x : 0|4@1+ (1,0) [0|15] \"\" A\n"+
			" SG_ x : 8|4@1+ (1,0) [0|15] \"\" A\n",
		"name already used in this message")
}

func TestResolve_BitRangeOutOfBounds(t *testing.T) {
	// 30+5 > 32
	mustFailResolve(t,
		"BU_: A\n"+
			"BO_ 9 M: 4 A\n"+
			" SG_ x : 30|5@1+ (1,0) [0|31] \"\" A\n",
		"leaves the 4-byte payload")

	// Motorola: starting at bit 3 of the last byte, only 4 bits remain.
	mustFailResolve(t,
		"BU_: A\n"+
			"BO_ 9 M: 1 A\n"+
			" SG_ x : 3|8@0+ (1,0) [0|255] \"\" A\n",
		"leaves the 1-byte payload")
}

func TestResolve_OverlapRejected(t *testing.T) {
	mustFailResolve(t,
		"BU_: A\n"+
			"BO_ 9 M: 2 A\n"+
			" SG_ lo : 0|8@1+ (1,0) [0|255] \"\" A\n"+
			" SG_ hi : 7|2@1+ (1,0) [0|3] \"\" A\n",
		"already claimed by signal lo")

	// Mixed orders overlap on the same absolute bits.
	mustFailResolve(t,
		"BU_: A\n"+
			"BO_ 9 M: 2 A\n"+
			" SG_ little : 8|8@1+ (1,0) [0|255] \"\" A\n"+
			" SG_ motorola : 15|4@0+ (1,0) [0|15] \"\" A\n",
		"already claimed by signal little")
}

func TestResolve_ZeroLengthSignal(t *testing.T) {
	mustFailResolve(t,
		"BU_: A\n"+
			"BO_ 9 M: 1 A\n"+
			" SG_ x : 0|0@1+ (1,0) [0|0] \"\" A\n",
		"bit length is zero")
}

func TestResolve_EmptyMessageOwnsNoSignals(t *testing.T) {
	f, err := parse.ParseString("BU_: A\nBO_ 9 Heartbeat: 0 A\n")
	require.NoError(t, err)
	d, err := Resolve(f)
	require.NoError(t, err)

	m, ok := d.MessageByID(9)
	require.True(t, ok)
	require.EqualValues(t, 0, m.Length())

	mustFailResolve(t,
		"BU_: A\n"+
			"BO_ 9 M: 0 A\n"+
			" SG_ x : 0|1@1+ (1,0) [0|1] \"\" A\n",
		"carries no payload")
}

func TestResolve_OversizeMessage(t *testing.T) {
	mustFailResolve(t, "BU_: A\nBO_ 9 M: 9 A\n", "exceeds the classic frame maximum")
}

func TestResolve_UndeclaredTransmitter(t *testing.T) {
	mustFailResolve(t, "BU_: A\nBO_ 9 M: 1 Ghost\n", "undeclared node Ghost")
}

func TestResolve_UndeclaredReceiver(t *testing.T) {
	mustFailResolve(t,
		"BU_: A\n"+
			"BO_ 9 M: 1 A\n"+
			" SG_ x : 0|8@1+ (1,0) [0|255] \"\" Ghost\n",
		"undeclared node Ghost")
}

func TestResolve_CommentOnUndeclaredNode(t *testing.T) {
	// Reference material annotates a node name that is never declared;
	// that is an authoring error, not something to ignore.
	mustFailResolve(t,
		"BU_: Ctrl\nCM_ BU_ ECU_A \"controller comment\";\n",
		"undeclared node ECU_A")
}

func TestResolve_CommentOnUnknownMessageOrSignal(t *testing.T) {
	mustFailResolve(t, "BU_: A\nCM_ BO_ 77 \"gone\";\n", "unknown message id 77")

	mustFailResolve(t,
		"BU_: A\nBO_ 9 M: 1 A\nCM_ SG_ 9 ghost \"gone\";\n",
		"has no signal ghost")
}

func TestResolve_ValueTableUnknownTarget(t *testing.T) {
	mustFailResolve(t, "BU_: A\nVAL_ 77 x 0 \"zero\" ;\n", "unknown message id 77")

	mustFailResolve(t,
		"BU_: A\nBO_ 9 M: 1 A\nVAL_ 9 ghost 0 \"zero\" ;\n",
		"has no signal ghost")
}

func TestResolve_DuplicateAttachments(t *testing.T) {
	mustFailResolve(t,
		"BU_: A\nCM_ BU_ A \"one\";\nCM_ BU_ A \"two\";\n",
		"more than one comment")

	mustFailResolve(t,
		"BU_: A\nBO_ 9 M: 1 A\n SG_ x : 0|8@1+ (1,0) [0|255] \"\" A\n"+
			"VAL_ 9 x 0 \"a\" ;\nVAL_ 9 x 1 \"b\" ;\n",
		"already has a value table")

	mustFailResolve(t,
		"BU_: A\nBO_ 9 M: 1 A\n SG_ x : 0|8@1+ (1,0) [0|255] \"\" A\n"+
			"VAL_ 9 x 0 \"a\" 0 \"b\" ;\n",
		"raw value 0 listed twice")
}

func TestResolve_ZeroFactor(t *testing.T) {
	mustFailResolve(t,
		"BU_: A\nBO_ 9 M: 1 A\n SG_ x : 0|8@1+ (0,0) [0|0] \"\" A\n",
		"scaling factor is zero")
}

func TestResolve_DuplicateMessageName(t *testing.T) {
	mustFailResolve(t,
		"BU_: A\nBO_ 9 M: 1 A\nBO_ 10 M: 1 A\n",
		"name already used by message id 9")
}
