package a

func get() int { return 1 }

func use(int) {}

func mustFail() int { panic("no") }

func deadStore() {
	y := get() // want `value stored to y@1 is never used`
	y = get()
	use(y)
}

func selfAssign(x int) {
	x = x // want `x assigned to itself`
	use(x)
}

func raising() {
	v := mustFail() // want `value assigned to v raises`
	use(v)
}

func forwarded() {
	z := 5
	use(z)
}

func merged(c bool) int {
	n := get()
	if c {
		n = get()
	}
	for i := 0; i < 3; i++ {
		n += i
	}
	return n
}

func captured() func() int {
	x := get()
	x = get()
	return func() int { return x }
}

func labeled() {
	y := get()
	y = get()
loop:
	for {
		use(y)
		break loop
	}
}
